package draft

import "strings"

// Step is a page of the course wizard.
type Step string

const (
	StepBasicInfo     Step = "basicInfo"
	StepCourseContent Step = "courseContent"
	StepTargetGroups  Step = "targetGroups"
)

// Steps lists the wizard pages in order.
var Steps = []Step{StepBasicInfo, StepCourseContent, StepTargetGroups}

// Valid reports whether s is one of the wizard pages.
func (s Step) Valid() bool {
	switch s {
	case StepBasicInfo, StepCourseContent, StepTargetGroups:
		return true
	}
	return false
}

// StepStatus tracks a step's progress. A step is done only after it was pending.
type StepStatus struct {
	Pending bool `json:"pending"`
	Done    bool `json:"done"`
}

// Target is the per-step status record. At most one step is pending.
type Target struct {
	BasicInfo     StepStatus `json:"basicInfo"`
	CourseContent StepStatus `json:"courseContent"`
	TargetGroups  StepStatus `json:"targetGroups"`
}

// SetTargetPage moves the wizard to step. It does not check prerequisites;
// callers that need that use CanNavigateTo first.
func (d *Draft) SetTargetPage(step Step) error {
	if !step.Valid() {
		return ErrUnknownStep
	}
	d.TargetPage = step
	return nil
}

// SetTarget recomputes Target from TargetPage. Unknown pages leave it unchanged.
func (d *Draft) SetTarget() {
	switch d.TargetPage {
	case StepBasicInfo:
		d.Target = Target{
			BasicInfo: StepStatus{Pending: true},
		}
	case StepCourseContent:
		d.Target = Target{
			BasicInfo:     StepStatus{Done: true},
			CourseContent: StepStatus{Pending: true},
		}
	case StepTargetGroups:
		d.Target = Target{
			BasicInfo:     StepStatus{Done: true},
			CourseContent: StepStatus{Done: true},
			TargetGroups:  StepStatus{Pending: true},
		}
	}
}

// Navigate moves to step if it is reachable and recomputes Target.
// It reports whether the move happened.
func (d *Draft) Navigate(step Step) bool {
	if !CanNavigateTo(step, d) {
		return false
	}
	d.TargetPage = step
	d.SetTarget()
	return true
}

// CanNavigateTo is the one place that decides whether the wizard may jump to step.
func CanNavigateTo(step Step, d *Draft) bool {
	switch step {
	case StepBasicInfo:
		return true
	case StepCourseContent:
		b := d.Basic
		return strings.TrimSpace(b.Name) != "" &&
			strings.TrimSpace(b.Description) != "" &&
			b.CategoryID > 0
	case StepTargetGroups:
		return CanNavigateTo(StepCourseContent, d) && len(d.Sections) > 0
	}
	return false
}

// Navigation reports CanNavigateTo for every step.
func Navigation(d *Draft) map[Step]bool {
	out := make(map[Step]bool, len(Steps))
	for _, s := range Steps {
		out[s] = CanNavigateTo(s, d)
	}
	return out
}
