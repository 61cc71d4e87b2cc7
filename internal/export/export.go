package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trabalhosfenix/planconv/internal/model"
)

// DefaultDateLayout is the ISO-8601 local date-time layout used for start and finish.
const DefaultDateLayout = "2006-01-02T15:04:05"

const (
	resourceSeparator    = ";"
	predecessorSeparator = ","
	relationCodeLength   = 2
)

// Document is the serialized form of a project.
type Document struct {
	Name  *string `json:"name"`
	Tasks []Task  `json:"tasks"`

	// Warnings collects non-fatal problems found while normalizing.
	Warnings []string `json:"-"`
}

// Task is one exported schedule row.
type Task struct {
	ID              int     `json:"id"`
	Name            *string `json:"name"`
	WBS             *string `json:"wbs"`
	Start           *string `json:"start"`
	Finish          *string `json:"finish"`
	Duration        *string `json:"duration"`
	PercentComplete float64 `json:"percentComplete"`
	Milestone       bool    `json:"milestone"`
	Summary         bool    `json:"summary"`
	Notes           *string `json:"notes"`
	ResourceNames   *string `json:"resourceNames"`
	Predecessors    *string `json:"predecessors"`

	// Links holds the resolved predecessors with their type and lag for
	// display. Documents read back with Load have none.
	Links []Link `json:"-"`
}

// Link is one resolved predecessor of a task.
type Link struct {
	TargetID int
	Type     string // FS, SS, FF or SF
	Lag      string // empty without lag
}

func (l Link) String() string {
	return strconv.Itoa(l.TargetID) + " " + l.Type + l.Lag
}

// Options controls normalization.
type Options struct {
	// DateLayout is a time.Format layout for start and finish.
	// Empty means DefaultDateLayout.
	DateLayout string
}

// Normalize maps a decoded project onto a Document. It never fails: missing
// optional values become null and problems are recorded in Document.Warnings.
func Normalize(p *model.Project, opts Options) *Document {
	layout := opts.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}

	doc := &Document{Tasks: make([]Task, 0)}
	if p == nil {
		return doc
	}
	doc.Name = copyString(p.Name)

	for _, src := range p.Tasks {
		if src == nil || src.ID == nil || *src.ID == 0 {
			continue
		}

		task := Task{
			ID:              *src.ID,
			Name:            copyString(src.Name),
			WBS:             copyString(src.WBS),
			Start:           formatTime(src, layout, true),
			Finish:          formatTime(src, layout, false),
			PercentComplete: percent(src.PercentComplete),
			Milestone:       src.Milestone,
			Summary:         src.Summary,
			Notes:           copyString(src.Notes),
			ResourceNames:   resourceNames(src.Assignments),
		}
		if src.Duration != nil {
			text := src.Duration.String()
			task.Duration = &text
		}

		preds, links, warnings := predecessors(src)
		task.Predecessors = preds
		task.Links = links
		doc.Warnings = append(doc.Warnings, warnings...)

		doc.Tasks = append(doc.Tasks, task)
	}

	return doc
}

// RelationCode returns the two character code written after a predecessor ID.
func RelationCode(t model.RelationType) string {
	name := t.String()
	if len(name) < relationCodeLength {
		return name
	}
	return name[:relationCodeLength]
}

// EncodeRelation renders a single predecessor reference, e.g. "7FI".
func EncodeRelation(targetID int, t model.RelationType) string {
	return strconv.Itoa(targetID) + RelationCode(t)
}

func resourceNames(assignments []*model.Assignment) *string {
	var names []string
	for _, a := range assignments {
		if a == nil || a.Resource == nil || a.Resource.Name == nil {
			continue
		}
		names = append(names, *a.Resource.Name)
	}
	if len(names) == 0 {
		return nil
	}
	joined := strings.Join(names, resourceSeparator)
	return &joined
}

func predecessors(t *model.Task) (*string, []Link, []string) {
	var refs []string
	var links []Link
	var warnings []string
	for i, rel := range t.Predecessors {
		if rel == nil || rel.Target == nil || rel.Target.ID == nil {
			warnings = append(warnings, fmt.Sprintf("task %d: predecessor %d has no resolvable target", *t.ID, i+1))
			continue
		}
		refs = append(refs, EncodeRelation(*rel.Target.ID, rel.Type))

		link := Link{TargetID: *rel.Target.ID, Type: rel.Type.Abbreviation()}
		if !rel.Lag.IsZero() {
			link.Lag = rel.Lag.String()
			if rel.Lag.Value > 0 {
				link.Lag = "+" + link.Lag
			}
		}
		links = append(links, link)
	}
	if len(refs) == 0 {
		return nil, nil, warnings
	}
	joined := strings.Join(refs, predecessorSeparator)
	return &joined, links, warnings
}

func formatTime(t *model.Task, layout string, start bool) *string {
	value := t.Finish
	if start {
		value = t.Start
	}
	if value == nil {
		return nil
	}
	text := value.Format(layout)
	return &text
}

func percent(v *float64) float64 {
	if v == nil {
		return 0
	}
	switch {
	case *v < 0:
		return 0
	case *v > 100:
		return 100
	}
	return *v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
