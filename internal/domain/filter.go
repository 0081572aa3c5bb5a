package domain

import (
	"sort"
	"strings"
)

type TaskTab string

const (
	TabPending  TaskTab = "pending"
	TabApproved TaskTab = "approved"
	TabRejected TaskTab = "rejected"
	TabComplete TaskTab = "complete"
	TabAll      TaskTab = "all"
)

// AllTaskTypes matches every task type in a TaskFilter.
const AllTaskTypes = "All"

func (t TaskTab) Valid() bool {
	switch t {
	case TabPending, TabApproved, TabRejected, TabComplete, TabAll:
		return true
	}
	return false
}

func (t TaskTab) matches(s TaskStatus) bool {
	switch t {
	case TabPending:
		return IsOpenTaskStatus(s)
	case TabApproved:
		return s == TaskStatusApproved
	case TabRejected:
		return s == TaskStatusRejected
	case TabComplete:
		return s == TaskStatusComplete
	default:
		return true
	}
}

// IsOpenTaskStatus reports whether a task in status s still awaits action.
func IsOpenTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusNew, TaskStatusPending, TaskStatusInProgress, TaskStatusReassigned,
		TaskStatusNeedsMoreInfo, TaskStatusOnHold:
		return true
	}
	return false
}

// TaskFilter narrows the task list shown in the hub. An empty tab means
// pending.
type TaskFilter struct {
	Tab      TaskTab
	TaskType string
	Search   string
}

func (f TaskFilter) Apply(tasks []Task) []Task {
	tab := f.Tab
	if tab == "" {
		tab = TabPending
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !tab.matches(t.Status) {
			continue
		}
		if f.TaskType != "" && f.TaskType != AllTaskTypes && string(t.TaskType) != f.TaskType {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

type DocumentSort string

const (
	SortByTitle     DocumentSort = "title"
	SortByType      DocumentSort = "type"
	SortByPublished DocumentSort = "published"
)

// DocumentQuery filters and orders the document portal listing.
type DocumentQuery struct {
	Search string
	Type   string
	Sort   DocumentSort
	Desc   bool
}

func (q DocumentQuery) Apply(docs []Document) []Document {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	docType := strings.TrimSpace(q.Type)

	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if search != "" && !strings.Contains(strings.ToLower(d.Title), search) {
			continue
		}
		if docType != "" && !strings.EqualFold(docType, "all") && !strings.EqualFold(d.DocumentType, docType) {
			continue
		}
		out = append(out, d)
	}

	less := q.less()
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func (q DocumentQuery) less() func(a, b Document) bool {
	switch q.Sort {
	case SortByType:
		return func(a, b Document) bool {
			return strings.ToLower(a.DocumentType) < strings.ToLower(b.DocumentType)
		}
	case SortByPublished:
		// undated documents go last in ascending order
		return func(a, b Document) bool {
			switch {
			case a.PublishedDate == nil:
				return false
			case b.PublishedDate == nil:
				return true
			}
			return a.PublishedDate.Before(*b.PublishedDate)
		}
	default:
		return func(a, b Document) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	}
}
