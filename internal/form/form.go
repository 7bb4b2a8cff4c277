// Package form holds the editable request configuration behind the UI.
package form

import "github.com/jonathan/resume-assistant/internal/types"

// Demonstration values loaded by LoadSample.
const (
	SampleCompany = "ExampleCorp"
	SampleRole    = "Backend Engineer"

	SampleJobDescription = `Company: ExampleCorp
Role: Backend Engineer

We are seeking an engineer who can design, build, and maintain RESTful APIs. Responsibilities include collaborating with product managers, reviewing code, and improving system reliability. Must-have skills: Python, FastAPI, SQL, cloud deployment. Nice-to-have: Docker, Kubernetes, observability (Prometheus/Grafana).`

	SampleProfile = `I am a software engineer with 4 years of experience building backend services.
- Built and maintained FastAPI services used by 30k monthly users.
- Led migration from monolith to microservices, improving reliability.
- Designed SQL schemas and optimized queries for analytics workloads.
- Deployed services to AWS using Docker and GitHub Actions.
- Added observability with Prometheus metrics and Grafana dashboards.`
)

// Default returns the initial form value: empty texts, every toggle at its preset.
func Default() types.RunRequest {
	return types.RunRequest{}.Materialize()
}

// Controller owns a single RunRequest value. Updates replace the whole value;
// callers build partial changes by copying Value and overriding fields.
// A Controller is not safe for concurrent use; its owner serializes access.
type Controller struct {
	value types.RunRequest
}

// NewController returns a controller holding Default().
func NewController() *Controller {
	return &Controller{value: Default()}
}

// Value returns a copy of the current value.
func (c *Controller) Value() types.RunRequest {
	return c.value.Clone()
}

// Set replaces the current value.
func (c *Controller) Set(next types.RunRequest) {
	c.value = next.Clone()
}

// LoadSample fills the text fields with demonstration content. Toggles keep
// their current state.
func (c *Controller) LoadSample() {
	next := c.Value()
	next.JobDescription = SampleJobDescription
	next.ProfileText = SampleProfile
	next.CompanyName = SampleCompany
	next.RoleTitle = SampleRole
	c.Set(next)
}

// Reset restores Default(), toggles included.
func (c *Controller) Reset() {
	c.Set(Default())
}
