package profile

import "net/http"

// Operation is one upstream resource.
type Operation struct {
	Tool        string
	Title       string
	Description string
	Method      string
	Path        string
	Label       string

	// ReadOnly is false for operations with side effects.
	ReadOnly bool
}

// Tool names.
const (
	ToolProfile            = "get_profile"
	ToolProjects           = "get_projects"
	ToolSocialLinks        = "get_social_links"
	ToolServices           = "get_services"
	ToolEducationAndSkills = "get_education_and_skills"
	ToolSendMessage        = "send_message"
)

// Operations is the static operation table, in registration order.
var Operations = []Operation{
	{
		Tool:        ToolProfile,
		Title:       "Profile",
		Description: "Get the private user profile: name, headline, bio and contact details.",
		Method:      http.MethodGet,
		Path:        "base/userprofile/private/",
		Label:       "profile",
		ReadOnly:    true,
	},
	{
		Tool:        ToolProjects,
		Title:       "Projects",
		Description: "Get the portfolio projects.",
		Method:      http.MethodGet,
		Path:        "portfolio/private/",
		Label:       "projects",
		ReadOnly:    true,
	},
	{
		Tool:        ToolSocialLinks,
		Title:       "Social links",
		Description: "Get the social network links.",
		Method:      http.MethodGet,
		Path:        "social/private/",
		Label:       "social links",
		ReadOnly:    true,
	},
	{
		Tool:        ToolServices,
		Title:       "Services",
		Description: "Get the professional services offered.",
		Method:      http.MethodGet,
		Path:        "services/private/",
		Label:       "services",
		ReadOnly:    true,
	},
	{
		Tool:        ToolEducationAndSkills,
		Title:       "Education and skills",
		Description: "Get education history and skills.",
		Method:      http.MethodGet,
		Path:        "education_and_skills/education_list_private/",
		Label:       "education and skills",
		ReadOnly:    true,
	},
	{
		Tool:        ToolSendMessage,
		Title:       "Send message",
		Description: "Send an email to the profile owner's contact address. An omitted or empty message is sent as the default test message.",
		Method:      http.MethodPost,
		Path:        "email_service/enviar-correo/",
		Label:       "message",
		ReadOnly:    false,
	},
}

// Lookup returns the operation registered under tool.
func Lookup(tool string) (Operation, bool) {
	for _, op := range Operations {
		if op.Tool == tool {
			return op, true
		}
	}
	return Operation{}, false
}
