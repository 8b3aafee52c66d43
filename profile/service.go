package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/profilemcp/upstream"
)

// DefaultMessage is sent when send_message is called without a message.
const DefaultMessage = "Hola, soy un mensaje de prueba"

// SenderName identifies this server as the sender of outgoing messages.
const SenderName = "MCP Server"

// ErrUnknownOperation is returned by Call for an unregistered tool name.
var ErrUnknownOperation = errors.New("profile: unknown operation")

// Requester performs one authenticated upstream call. *upstream.Fetcher
// implements it.
type Requester interface {
	Do(ctx context.Context, req upstream.Request) (upstream.Result, error)
}

// Message is the send_message request body.
type Message struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Service runs profile operations. It holds no per-call state and is safe
// for concurrent use.
type Service struct {
	fetcher      Requester
	contactEmail string
}

// NewService creates a Service. contactEmail is the recipient of
// send_message.
func NewService(fetcher Requester, contactEmail string) *Service {
	return &Service{fetcher: fetcher, contactEmail: contactEmail}
}

// Profile fetches the private user profile.
func (s *Service) Profile(ctx context.Context) (upstream.Result, error) {
	return s.Call(ctx, ToolProfile, "")
}

// Projects fetches the portfolio projects.
func (s *Service) Projects(ctx context.Context) (upstream.Result, error) {
	return s.Call(ctx, ToolProjects, "")
}

// SocialLinks fetches the social network links.
func (s *Service) SocialLinks(ctx context.Context) (upstream.Result, error) {
	return s.Call(ctx, ToolSocialLinks, "")
}

// Services fetches the professional services.
func (s *Service) Services(ctx context.Context) (upstream.Result, error) {
	return s.Call(ctx, ToolServices, "")
}

// EducationAndSkills fetches education history and skills.
func (s *Service) EducationAndSkills(ctx context.Context) (upstream.Result, error) {
	return s.Call(ctx, ToolEducationAndSkills, "")
}

// SendMessage emails message to the contact address. An empty message is
// replaced by DefaultMessage.
func (s *Service) SendMessage(ctx context.Context, message string) (upstream.Result, error) {
	return s.Call(ctx, ToolSendMessage, message)
}

// Call runs the operation registered under tool. message is used only by
// send_message.
func (s *Service) Call(ctx context.Context, tool, message string) (upstream.Result, error) {
	op, ok := Lookup(tool)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, tool)
	}

	req := upstream.Request{Method: op.Method, Path: op.Path, Label: op.Label}
	if tool == ToolSendMessage {
		if message == "" {
			message = DefaultMessage
		}
		req.Body = Message{Email: s.contactEmail, Name: SenderName, Message: message}
	}
	return s.fetcher.Do(ctx, req)
}
