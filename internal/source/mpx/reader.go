// Package mpx decodes the delimited MPX project exchange format.
package mpx

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/trabalhosfenix/planconv/internal/model"
)

// Record numbers used by the reader. Others are skipped.
const (
	recordCurrency        = 10
	recordDefaults        = 11
	recordDateTime        = 12
	recordProjectHeader   = 30
	recordResourceText    = 40
	recordResourceNumeric = 41
	recordResource        = 50
	recordTaskText        = 60
	recordTaskNumeric     = 61
	recordTask            = 70
	recordTaskNotes       = 71
	recordAssignment      = 75
)

var (
	magic   = []byte("MPX")
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	// ErrNotMPX is returned when the stream does not start with the MPX header.
	ErrNotMPX = errors.New("missing MPX header")
)

// Reader decodes MPX files.
type Reader struct {
	// Encoding overrides the code page named in the file header.
	Encoding string
}

// NewReader returns an MPX reader. An empty encoding uses the file header.
func NewReader(encoding string) *Reader {
	return &Reader{Encoding: encoding}
}

// Read decodes a project from in. The context is checked between records.
func (r *Reader) Read(ctx context.Context, in io.Reader) (*model.Project, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read mpx: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !bytes.HasPrefix(data, magic) || len(data) <= len(magic) {
		return nil, ErrNotMPX
	}
	delimiter := rune(data[len(magic)])

	text, err := decodeText(data, r.Encoding, headerCodePage(data, byte(delimiter)))
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(text)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	p := newParser()
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mpx record %d: %w", line, err)
		}
		if line == 1 {
			continue
		}
		if err := p.record(record); err != nil {
			return nil, fmt.Errorf("mpx record %d: %w", line, err)
		}
	}
	p.resolve()
	return p.project, nil
}

// headerCodePage returns the fourth header field, e.g. ANSI.
func headerCodePage(data []byte, delimiter byte) string {
	line := data
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		line = data[:i]
	}
	fields := bytes.Split(line, []byte{delimiter})
	if len(fields) < 4 {
		return ""
	}
	return strings.TrimSpace(string(fields[3]))
}

func newParser() *parser {
	return &parser{
		project:      &model.Project{Settings: model.DefaultSettings()},
		decimalSep:   ".",
		thousandsSep: ",",
		dateSep:      "/",
		timeSep:      ":",
		amText:       "AM",
		pmText:       "PM",
	}
}

type pendingLinks struct {
	task *model.Task
	text string
}

type pendingAssignment struct {
	assignment *model.Assignment
	resourceID int
}

type parser struct {
	project *model.Project

	decimalSep   string
	thousandsSep string
	dateOrder    int
	dateSep      string
	timeSep      string
	amText       string
	pmText       string

	resourceFields []int
	taskFields     []int
	lastTask       *model.Task

	links       []pendingLinks
	assignments []pendingAssignment
}

func (p *parser) record(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	code, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return fmt.Errorf("invalid record number %q", fields[0])
	}
	values := fields[1:]

	switch code {
	case recordCurrency:
		p.currency(values)
	case recordDefaults:
		return p.defaults(values)
	case recordDateTime:
		p.dateTime(values)
	case recordProjectHeader:
		p.project.Name = value(values, 0)
	case recordResourceText:
		p.resourceFields = fieldsFromNames(values, resourceFieldNames)
	case recordResourceNumeric:
		p.resourceFields = fieldsFromNumbers(values)
	case recordResource:
		return p.resource(values)
	case recordTaskText:
		p.taskFields = fieldsFromNames(values, taskFieldNames)
	case recordTaskNumeric:
		p.taskFields = fieldsFromNumbers(values)
	case recordTask:
		return p.task(values)
	case recordTaskNotes:
		if p.lastTask == nil {
			return errors.New("notes record before any task")
		}
		if notes := value(values, 0); notes != nil {
			text := strings.ReplaceAll(*notes, "\x7f", "\n")
			p.lastTask.Notes = &text
		}
	case recordAssignment:
		return p.assignment(values)
	}
	return nil
}

func (p *parser) currency(values []string) {
	if v := value(values, 3); v != nil {
		p.thousandsSep = *v
	}
	if v := value(values, 4); v != nil {
		p.decimalSep = *v
	}
}

func (p *parser) defaults(values []string) error {
	if v := value(values, 3); v != nil {
		minutes, err := p.hoursToMinutes(*v)
		if err != nil {
			return fmt.Errorf("hours per day: %w", err)
		}
		p.project.Settings.MinutesPerDay = minutes
	}
	if v := value(values, 4); v != nil {
		minutes, err := p.hoursToMinutes(*v)
		if err != nil {
			return fmt.Errorf("hours per week: %w", err)
		}
		p.project.Settings.MinutesPerWeek = minutes
	}
	return nil
}

func (p *parser) dateTime(values []string) {
	if v := value(values, 0); v != nil {
		if order, err := strconv.Atoi(*v); err == nil {
			p.dateOrder = order
		}
	}
	if v := value(values, 3); v != nil {
		p.dateSep = *v
	}
	if v := value(values, 4); v != nil {
		p.timeSep = *v
	}
	if v := value(values, 5); v != nil {
		p.amText = *v
	}
	if v := value(values, 6); v != nil {
		p.pmText = *v
	}
}

func (p *parser) resource(values []string) error {
	if p.resourceFields == nil {
		return errors.New("resource record before resource field definition")
	}
	res := &model.Resource{}
	for i, field := range p.resourceFields {
		v := value(values, i)
		if v == nil {
			continue
		}
		switch field {
		case resourceName:
			res.Name = v
		case resourceID:
			id, err := strconv.Atoi(*v)
			if err != nil {
				return fmt.Errorf("resource id %q: %w", *v, err)
			}
			res.ID = &id
		case resourceUniqueID:
			uid, err := strconv.Atoi(*v)
			if err != nil {
				return fmt.Errorf("resource unique id %q: %w", *v, err)
			}
			res.UniqueID = &uid
		}
	}
	p.project.Resources = append(p.project.Resources, res)
	return nil
}

func (p *parser) task(values []string) error {
	if p.taskFields == nil {
		return errors.New("task record before task field definition")
	}
	task := &model.Task{}
	var durationText *string
	for i, field := range p.taskFields {
		v := value(values, i)
		if v == nil {
			continue
		}
		if err := p.taskField(task, field, *v, &durationText); err != nil {
			return err
		}
	}
	if durationText != nil {
		d, err := model.ParseDuration(p.normalizeNumber(*durationText), model.Days)
		if err != nil {
			return fmt.Errorf("task duration: %w", err)
		}
		task.Duration = &d
	}
	p.project.Tasks = append(p.project.Tasks, task)
	p.lastTask = task
	return nil
}

func (p *parser) taskField(task *model.Task, field int, v string, duration **string) error {
	var err error
	switch field {
	case taskName:
		task.Name = &v
	case taskWBS:
		task.WBS = &v
	case taskDuration:
		*duration = &v
	case taskPercentComplete:
		var pct float64
		if pct, err = p.percent(v); err == nil {
			task.PercentComplete = &pct
		}
	case taskStart:
		task.Start, err = p.date(v)
	case taskFinish:
		task.Finish, err = p.date(v)
	case taskPredecessors:
		p.links = append(p.links, pendingLinks{task: task, text: v})
	case taskMilestone:
		task.Milestone, err = parseBool(v)
	case taskSummary:
		task.Summary, err = parseBool(v)
	case taskID:
		var id int
		if id, err = strconv.Atoi(v); err == nil {
			task.ID = &id
		}
	case taskUniqueID:
		var uid int
		if uid, err = strconv.Atoi(v); err == nil {
			task.UniqueID = &uid
		}
	}
	if err != nil {
		return fmt.Errorf("task field %d %q: %w", field, v, err)
	}
	return nil
}

func (p *parser) assignment(values []string) error {
	if p.lastTask == nil {
		return errors.New("assignment record before any task")
	}
	a := &model.Assignment{}
	p.lastTask.Assignments = append(p.lastTask.Assignments, a)

	v := value(values, 0)
	if v == nil {
		return nil
	}
	id, err := strconv.Atoi(*v)
	if err != nil {
		return fmt.Errorf("assignment resource id %q: %w", *v, err)
	}
	p.assignments = append(p.assignments, pendingAssignment{assignment: a, resourceID: id})
	return nil
}

// resolve links predecessors and assignments once every record is known.
// References to unknown tasks keep a nil target.
func (p *parser) resolve() {
	for _, pa := range p.assignments {
		pa.assignment.Resource = p.project.ResourceByID(pa.resourceID)
	}
	for _, pl := range p.links {
		for _, ref := range p.splitList(pl.text) {
			rel := p.relation(ref)
			if rel == nil {
				continue
			}
			pl.task.Predecessors = append(pl.task.Predecessors, rel)
		}
	}
}

func value(values []string, i int) *string {
	if i >= len(values) {
		return nil
	}
	v := strings.TrimSpace(values[i])
	if v == "" {
		return nil
	}
	return &v
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y", "1", "true":
		return true, nil
	case "no", "n", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean")
}
