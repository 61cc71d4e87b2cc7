// Package mspdi decodes Microsoft Project XML (MSPDI) documents.
package mspdi

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/trabalhosfenix/planconv/internal/model"
)

// DateLayout is the MSPDI date-time layout.
const DateLayout = "2006-01-02T15:04:05"

// ErrNotProject is returned when the document root is not a Project element.
var ErrNotProject = errors.New("root element is not Project")

type xmlTask struct {
	UID             *int      `xml:"UID"`
	ID              *int      `xml:"ID"`
	Name            string    `xml:"Name"`
	WBS             string    `xml:"WBS"`
	Start           string    `xml:"Start"`
	Finish          string    `xml:"Finish"`
	Duration        string    `xml:"Duration"`
	DurationFormat  *int      `xml:"DurationFormat"`
	PercentComplete *float64  `xml:"PercentComplete"`
	Milestone       bool      `xml:"Milestone"`
	Summary         bool      `xml:"Summary"`
	Notes           string    `xml:"Notes"`
	Links           []xmlLink `xml:"PredecessorLink"`
}

type xmlLink struct {
	PredecessorUID *int   `xml:"PredecessorUID"`
	Type           *int   `xml:"Type"`
	LinkLag        string `xml:"LinkLag"`
	LagFormat      *int   `xml:"LagFormat"`
}

type xmlResource struct {
	UID  *int   `xml:"UID"`
	ID   *int   `xml:"ID"`
	Name string `xml:"Name"`
}

type xmlAssignment struct {
	TaskUID     *int `xml:"TaskUID"`
	ResourceUID *int `xml:"ResourceUID"`
}

// Reader decodes MSPDI documents.
type Reader struct{}

// NewReader returns an MSPDI reader.
func NewReader() *Reader {
	return &Reader{}
}

type decodeState struct {
	project     *model.Project
	name, title string
	tasks       []xmlTask
	resources   []xmlResource
	assignments []xmlAssignment
}

// Read decodes a project from r. The context is checked between elements.
func (r *Reader) Read(ctx context.Context, in io.Reader) (*model.Project, error) {
	dec := xml.NewDecoder(in)
	dec.CharsetReader = charset.NewReaderLabel

	root, err := nextStart(dec)
	if err != nil {
		return nil, err
	}
	if root.Name.Local != "Project" {
		return nil, fmt.Errorf("%w: found %q", ErrNotProject, root.Name.Local)
	}

	st := &decodeState{project: &model.Project{Settings: model.DefaultSettings()}}
	if err := st.decodeProject(ctx, dec); err != nil {
		return nil, err
	}
	if err := st.build(); err != nil {
		return nil, err
	}
	return st.project, nil
}

func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return xml.StartElement{}, fmt.Errorf("empty document")
			}
			return xml.StartElement{}, fmt.Errorf("decode xml: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func (st *decodeState) decodeProject(ctx context.Context, dec *xml.Decoder) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := st.decodeProjectChild(ctx, dec, el); err != nil {
				return err
			}
		}
	}
}

func (st *decodeState) decodeProjectChild(ctx context.Context, dec *xml.Decoder, el xml.StartElement) error {
	settings := &st.project.Settings
	switch el.Name.Local {
	case "Name":
		return dec.DecodeElement(&st.name, &el)
	case "Title":
		return dec.DecodeElement(&st.title, &el)
	case "MinutesPerDay":
		return decodeFloat(dec, el, &settings.MinutesPerDay)
	case "MinutesPerWeek":
		return decodeFloat(dec, el, &settings.MinutesPerWeek)
	case "DaysPerMonth":
		return decodeFloat(dec, el, &settings.DaysPerMonth)
	case "Tasks":
		return decodeList(ctx, dec, "Task", &st.tasks)
	case "Resources":
		return decodeList(ctx, dec, "Resource", &st.resources)
	case "Assignments":
		return decodeList(ctx, dec, "Assignment", &st.assignments)
	default:
		return dec.Skip()
	}
}

func decodeFloat(dec *xml.Decoder, el xml.StartElement, dst *float64) error {
	var text string
	if err := dec.DecodeElement(&text, &el); err != nil {
		return fmt.Errorf("decode %s: %w", el.Name.Local, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("decode %s: %w", el.Name.Local, err)
	}
	*dst = v
	return nil
}

func decodeList[T any](ctx context.Context, dec *xml.Decoder, item string, out *[]T) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if el.Name.Local != item {
				if err := dec.Skip(); err != nil {
					return err
				}
				continue
			}
			var v T
			if err := dec.DecodeElement(&v, &el); err != nil {
				return fmt.Errorf("decode %s %d: %w", item, len(*out)+1, err)
			}
			*out = append(*out, v)
		}
	}
}

func (st *decodeState) build() error {
	p := st.project
	p.Name = nonEmpty(st.name)
	if p.Name == nil {
		p.Name = nonEmpty(st.title)
	}

	for _, xr := range st.resources {
		p.Resources = append(p.Resources, &model.Resource{
			ID:       xr.ID,
			UniqueID: xr.UID,
			Name:     nonEmpty(xr.Name),
		})
	}

	for i, xt := range st.tasks {
		task, err := st.task(xt)
		if err != nil {
			return fmt.Errorf("task %d: %w", i+1, err)
		}
		p.Tasks = append(p.Tasks, task)
	}

	for i, xt := range st.tasks {
		if err := st.link(p.Tasks[i], xt.Links); err != nil {
			return fmt.Errorf("task %d: %w", i+1, err)
		}
	}

	for _, xa := range st.assignments {
		if xa.TaskUID == nil {
			continue
		}
		task := p.TaskByUniqueID(*xa.TaskUID)
		if task == nil {
			continue
		}
		var res *model.Resource
		if xa.ResourceUID != nil {
			res = p.ResourceByUniqueID(*xa.ResourceUID)
		}
		task.Assignments = append(task.Assignments, &model.Assignment{Resource: res})
	}
	return nil
}

func (st *decodeState) task(xt xmlTask) (*model.Task, error) {
	task := &model.Task{
		ID:              xt.ID,
		UniqueID:        xt.UID,
		Name:            nonEmpty(xt.Name),
		WBS:             nonEmpty(xt.WBS),
		Notes:           nonEmpty(xt.Notes),
		PercentComplete: xt.PercentComplete,
		Milestone:       xt.Milestone,
		Summary:         xt.Summary,
	}

	var err error
	if task.Start, err = parseTime(xt.Start); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if task.Finish, err = parseTime(xt.Finish); err != nil {
		return nil, fmt.Errorf("finish: %w", err)
	}

	if text := strings.TrimSpace(xt.Duration); text != "" {
		minutes, err := ParseISODuration(text, st.project.Settings)
		if err != nil {
			return nil, fmt.Errorf("duration: %w", err)
		}
		unit := model.Days
		if xt.DurationFormat != nil {
			unit = DurationUnit(*xt.DurationFormat)
		}
		d := model.FromMinutes(minutes, unit, st.project.Settings)
		task.Duration = &d
	}
	return task, nil
}

func (st *decodeState) link(task *model.Task, links []xmlLink) error {
	for _, xl := range links {
		rel := &model.Relation{Type: model.FinishStart}
		if xl.PredecessorUID != nil {
			rel.Target = st.project.TaskByUniqueID(*xl.PredecessorUID)
		}
		if xl.Type != nil {
			t, err := RelationType(*xl.Type)
			if err != nil {
				return err
			}
			rel.Type = t
		}
		if lag := strings.TrimSpace(xl.LinkLag); lag != "" {
			tenths, err := strconv.ParseFloat(lag, 64)
			if err != nil {
				return fmt.Errorf("link lag %q: %w", lag, err)
			}
			unit := model.Days
			if xl.LagFormat != nil {
				unit = DurationUnit(*xl.LagFormat)
			}
			rel.Lag = model.FromMinutes(tenths/10, unit, st.project.Settings)
		}
		task.Predecessors = append(task.Predecessors, rel)
	}
	return nil
}

// RelationType maps the MSPDI PredecessorLink/Type code.
func RelationType(code int) (model.RelationType, error) {
	switch code {
	case 0:
		return model.FinishFinish, nil
	case 1:
		return model.FinishStart, nil
	case 2:
		return model.StartFinish, nil
	case 3:
		return model.StartStart, nil
	}
	return model.FinishStart, fmt.Errorf("unknown link type %d", code)
}

func parseTime(text string) (*time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, text, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
