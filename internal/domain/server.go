package domain

import (
	"time"

	"github.com/google/uuid"
)

// ServerStatus is the lifecycle state of a server. Transitions are driven
// exclusively by the lifecycle coordinator.
type ServerStatus string

const (
	StatusCreated      ServerStatus = "created"
	StatusWaitingForIP ServerStatus = "waiting_for_ip"
	StatusProvisioning ServerStatus = "provisioning"
	StatusReady        ServerStatus = "ready"
	StatusFailed       ServerStatus = "failed"
)

// transitions lists the legal next states per state.
var transitions = map[ServerStatus][]ServerStatus{
	StatusCreated:      {StatusWaitingForIP, StatusProvisioning, StatusFailed},
	StatusWaitingForIP: {StatusProvisioning, StatusFailed},
	StatusProvisioning: {StatusReady, StatusFailed},
	StatusFailed:       {StatusProvisioning},
	StatusReady:        {},
}

// CanTransitionTo reports whether moving to next is legal from s.
func (s ServerStatus) CanTransitionTo(next ServerStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AuthMethod selects how SSH to the server authenticates.
type AuthMethod string

const (
	AuthKey      AuthMethod = "key"
	AuthPassword AuthMethod = "password"
)

// Server is the local record of a target host. A server without an
// integration reference is a custom (user-supplied) host.
type Server struct {
	ID            string       `json:"id"`
	Name          string       `json:"name,omitempty"`
	IntegrationID string       `json:"integration_id,omitempty"` // empty = custom host
	RemoteID      string       `json:"remote_id,omitempty"`      // vendor-side server id
	Status        ServerStatus `json:"status"`
	Architecture  string       `json:"architecture,omitempty"`

	SSHHost    string     `json:"ssh_host,omitempty"`
	SSHPort    int        `json:"ssh_port,omitempty"`
	SSHUser    string     `json:"ssh_user,omitempty"`
	AuthMethod AuthMethod `json:"auth_method,omitempty"`
	KeyPath    string     `json:"key_path,omitempty"`
	Password   string     `json:"password,omitempty"`

	TunnelID string   `json:"tunnel_id,omitempty"` // local tunnel record id
	Projects []string `json:"projects,omitempty"`  // deployed project references

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewServer returns a server in status created.
func NewServer(name string) *Server {
	now := time.Now().UTC()
	return &Server{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsCustom reports whether the host is user-supplied rather than
// vendor-managed.
func (s *Server) IsCustom() bool {
	return s.IntegrationID == ""
}
