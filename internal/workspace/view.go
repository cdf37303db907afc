package workspace

import "fmt"

// View is one of the workspace panels.
type View string

const (
	ViewChat      View = "CHAT"
	ViewRoadmap   View = "ROADMAP"
	ViewInterview View = "INTERVIEW"
	ViewResume    View = "RESUME"
	ViewCourses   View = "COURSES"
)

// NavItem describes a view for navigation menus.
type NavItem struct {
	ID       View   `json:"id"`
	Label    string `json:"label"`
	Subtitle string `json:"subtitle"`
}

// NavItems lists the views in menu order.
var NavItems = []NavItem{
	{ID: ViewChat, Label: "Career Chat", Subtitle: "Your personal AI career guide, available 24/7."},
	{ID: ViewRoadmap, Label: "Roadmap", Subtitle: "Visualize your path to success step-by-step."},
	{ID: ViewInterview, Label: "Mock Interview", Subtitle: "Practice makes perfect. Test your knowledge."},
	{ID: ViewResume, Label: "Resume Check", Subtitle: "Optimize your resume for the ATS and recruiters."},
	{ID: ViewCourses, Label: "Courses", Subtitle: "Curated learning resources just for you."},
}

// ParseView validates s as a View.
func ParseView(s string) (View, error) {
	for _, item := range NavItems {
		if string(item.ID) == s {
			return item.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Item returns the navigation entry for v.
func (v View) Item() NavItem {
	for _, item := range NavItems {
		if item.ID == v {
			return item
		}
	}
	return NavItem{ID: v}
}
