// Package export normalizes a decoded project into the flat task document and
// writes it as JSON.
//
// The document format:
//
//	{
//	  "name": "Demo",
//	  "tasks": [
//	    {
//	      "id": 2,
//	      "name": "Build",
//	      "wbs": "1.2",
//	      "start": "2024-01-03T08:00:00",
//	      "finish": "2024-01-09T17:00:00",
//	      "duration": "5.0d",
//	      "percentComplete": 40,
//	      "milestone": false,
//	      "summary": false,
//	      "notes": null,
//	      "resourceNames": "Carol;Dave",
//	      "predecessors": "1FI"
//	    }
//	  ]
//	}
//
// # Normalization
//
//   - Tasks without an ID, or with ID 0 (the project summary row), are dropped.
//   - Values missing from the source are written as null, except
//     percentComplete which defaults to 0 and is clamped to [0, 100].
//   - resourceNames joins the names of assigned resources with ";".
//   - predecessors joins "<predecessor id><code>" entries with ",", where code
//     is the first two characters of the relation type name
//     (FINISH_START gives "FI").
//
// # Writing
//
// Save writes 2-space indented JSON with a trailing newline. The file is
// written next to the destination and renamed into place, so a failed run
// never leaves a truncated document behind.
//
// # Validation
//
// Validate checks a document against the embedded JSON Schema (draft
// 2020-12), or a schema file supplied by the caller. If a custom schema cannot
// be loaded, minimal structural checks are used instead.
package export
