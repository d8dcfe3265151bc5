package portal

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ResourceType classifies an uploaded material.
type ResourceType string

const (
	TypeNotes      ResourceType = "Notes"
	TypePYQ        ResourceType = "PYQ"
	TypeAssignment ResourceType = "Assignment"
	TypeLabManual  ResourceType = "Lab Manual"
	TypeSyllabus   ResourceType = "Syllabus"
	TypeVideo      ResourceType = "Video"
)

// BranchOption pairs a branch code with its display label.
type BranchOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Closed vocabularies used by upload forms and browse filters.
var (
	Branches = []BranchOption{
		{Value: "CSE", Label: "Computer Science (CSE)"},
		{Value: "AIML", Label: "CSE (AI/ML)"},
		{Value: "IT", Label: "Information Technology"},
		{Value: "ECE", Label: "Electronics & Comm."},
		{Value: "EE", Label: "Electrical Engineering"},
		{Value: "ME", Label: "Mechanical Engineering"},
		{Value: "CE", Label: "Civil Engineering"},
	}
	Years         = []string{"1st Year", "2nd Year", "3rd Year", "4th Year"}
	Semesters     = []string{"Sem 1", "Sem 2", "Sem 3", "Sem 4", "Sem 5", "Sem 6", "Sem 7", "Sem 8"}
	ResourceTypes = []ResourceType{TypeNotes, TypePYQ, TypeAssignment, TypeLabManual, TypeSyllabus, TypeVideo}
)

// ErrInvalidDraft is returned when an upload draft falls outside the vocabularies.
var ErrInvalidDraft = errors.New("invalid material")

// Material is an uploaded document record.
type Material struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Subject      string       `json:"subject"`
	Branch       string       `json:"branch"`
	Year         string       `json:"year"`
	Semester     string       `json:"semester"`
	Type         ResourceType `json:"type"`
	FileURL      string       `json:"fileUrl"`
	UploadedBy   string       `json:"uploadedBy"`
	UploaderName string       `json:"uploaderName"`
	IsApproved   bool         `json:"isApproved"`
	Downloads    int          `json:"downloads"`
	Likes        int          `json:"likes"`
	CreatedAt    time.Time    `json:"createdAt"`
	Size         string       `json:"size"`
}

// Draft carries the caller-supplied fields of a new material.
type Draft struct {
	Title        string
	Description  string
	Subject      string
	Branch       string
	Year         string
	Semester     string
	Type         ResourceType
	FileURL      string
	UploadedBy   string
	UploaderName string
	Size         string
}

// Validate checks the draft against the closed vocabularies.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidDraft)
	}
	if !IsBranch(d.Branch) {
		return fmt.Errorf("%w: unknown branch %q", ErrInvalidDraft, d.Branch)
	}
	if !slices.Contains(Years, d.Year) {
		return fmt.Errorf("%w: unknown year %q", ErrInvalidDraft, d.Year)
	}
	if !slices.Contains(Semesters, d.Semester) {
		return fmt.Errorf("%w: unknown semester %q", ErrInvalidDraft, d.Semester)
	}
	if !slices.Contains(ResourceTypes, d.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDraft, d.Type)
	}
	return nil
}

// IsBranch reports whether value is one of the branch codes.
func IsBranch(value string) bool {
	return slices.ContainsFunc(Branches, func(b BranchOption) bool { return b.Value == value })
}

// ParseResourceType matches user input case-insensitively against the resource types.
func ParseResourceType(value string) (ResourceType, bool) {
	value = strings.TrimSpace(value)
	for _, t := range ResourceTypes {
		if strings.EqualFold(string(t), value) {
			return t, true
		}
	}
	return "", false
}
