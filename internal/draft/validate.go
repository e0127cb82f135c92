package draft

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stemsi/course-builder/internal/quiz"
)

// ValidateCourse checks a draft before submission and returns every problem
// found. The backend remains the final authority; this only catches what can
// be caught locally.
func ValidateCourse(d *Draft) []string {
	errs := []string{}

	if strings.TrimSpace(d.Basic.Name) == "" {
		errs = append(errs, "Course name is required")
	}
	if strings.TrimSpace(d.Basic.Description) == "" {
		errs = append(errs, "Course description is required")
	}
	if d.Basic.CategoryID <= 0 {
		errs = append(errs, "Course category is required")
	}
	if len(d.Sections) == 0 {
		errs = append(errs, "At least one section is required")
	}

	for i, s := range d.Sections {
		for j, c := range s.Contents {
			prefix := fmt.Sprintf("Section %d, content %d: ", i+1, j+1)
			switch b := c.Body.(type) {
			case File:
				if b.File.Path == "" {
					errs = append(errs, prefix+"file is missing")
				}
			case URL:
				if strings.TrimSpace(b.Href) == "" {
					errs = append(errs, prefix+"URL is empty")
				}
			case Quiz:
				if len(b.Questions) == 0 {
					errs = append(errs, prefix+"quiz has no questions")
				}
				for k, q := range b.Questions {
					for _, e := range quiz.ValidateQuestion(k+1, q) {
						errs = append(errs, prefix+e)
					}
				}
			}
		}
	}

	errs = append(errs, ValidateSuccessionRates(d.SuccessionRates)...)
	return errs
}

// ValidateSuccessionRates requires bands inside [0,100], each with
// min <= max, and together contiguous without overlap.
func ValidateSuccessionRates(rates []SuccessionRate) []string {
	var errs []string

	for i, r := range rates {
		if r.MinRange < 0 || r.MaxRange > 100 {
			errs = append(errs, fmt.Sprintf("Succession rate %d must lie within 0-100", i+1))
		}
		if r.MinRange > r.MaxRange {
			errs = append(errs, fmt.Sprintf("Succession rate %d has min above max", i+1))
		}
		if r.CertificateID <= 0 {
			errs = append(errs, fmt.Sprintf("Succession rate %d needs a certificate", i+1))
		}
	}

	sorted := append([]SuccessionRate(nil), rates...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].MinRange < sorted[b].MinRange })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		switch {
		case cur.MinRange <= prev.MaxRange:
			errs = append(errs, fmt.Sprintf("Succession rates %d-%d and %d-%d overlap",
				prev.MinRange, prev.MaxRange, cur.MinRange, cur.MaxRange))
		case cur.MinRange > prev.MaxRange+1:
			errs = append(errs, fmt.Sprintf("Succession rates leave a gap between %d and %d",
				prev.MaxRange, cur.MinRange))
		}
	}

	return errs
}
