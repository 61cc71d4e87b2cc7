package mpx

import (
	"strconv"
	"strings"
)

// Resource field numbers from the 41 record.
const (
	resourceName     = 1
	resourceID       = 40
	resourceUniqueID = 49
)

// Task field numbers from the 61 record.
const (
	taskName            = 1
	taskWBS             = 2
	taskDuration        = 40
	taskPercentComplete = 44
	taskStart           = 50
	taskFinish          = 51
	taskPredecessors    = 70
	taskMilestone       = 82
	taskID              = 90
	taskUniqueID        = 98
	taskSummary         = 120
)

var resourceFieldNames = map[string]int{
	"name":      resourceName,
	"id":        resourceID,
	"unique id": resourceUniqueID,
}

var taskFieldNames = map[string]int{
	"name":         taskName,
	"wbs":          taskWBS,
	"duration":     taskDuration,
	"% complete":   taskPercentComplete,
	"start":        taskStart,
	"finish":       taskFinish,
	"predecessors": taskPredecessors,
	"milestone":    taskMilestone,
	"id":           taskID,
	"unique id":    taskUniqueID,
	"summary":      taskSummary,
}

// fieldsFromNumbers reads a numeric field definition record. Unparseable
// entries map to 0 so later columns keep their position.
func fieldsFromNumbers(values []string) []int {
	out := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			out[i] = n
		}
	}
	return out
}

// fieldsFromNames reads a textual field definition record.
func fieldsFromNames(values []string, names map[string]int) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = names[strings.ToLower(strings.TrimSpace(v))]
	}
	return out
}
