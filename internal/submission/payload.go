package submission

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ErrInvalidInput is returned for malformed or missing submission fields.
// It is always detected before any request leaves the client.
var ErrInvalidInput = errors.New("invalid input")

const (
	// ArchiveExtension is the only accepted archive type
	ArchiveExtension = ".zip"
	// DefaultBranch is used when a repository submission names no branch
	DefaultBranch = "main"
)

// Role is the developer role the onboarding material is tailored to
type Role string

const (
	RoleFullStack Role = "fullstack"
	RoleFrontend  Role = "frontend"
	RoleBackend   Role = "backend"
	RoleDevOps    Role = "devops"
)

// Roles lists every known role, default first
var Roles = []Role{RoleFullStack, RoleFrontend, RoleBackend, RoleDevOps}

// DisplayName returns a human-readable role name
func (r Role) DisplayName() string {
	switch r {
	case RoleFullStack:
		return "Full Stack Developer"
	case RoleFrontend:
		return "Frontend Developer"
	case RoleBackend:
		return "Backend Developer"
	case RoleDevOps:
		return "DevOps Engineer"
	default:
		return string(r)
	}
}

// ParseRole maps user input to a Role. Empty input means full-stack.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fullstack", "full-stack", "full stack":
		return RoleFullStack, nil
	case "frontend":
		return RoleFrontend, nil
	case "backend":
		return RoleBackend, nil
	case "devops":
		return RoleDevOps, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q (expected fullstack, frontend, backend or devops)", ErrInvalidInput, s)
	}
}

// Method is how a codebase is submitted
type Method int

const (
	MethodArchive Method = iota + 1
	MethodRepository
)

// String returns the method name
func (m Method) String() string {
	switch m {
	case MethodArchive:
		return "archive"
	case MethodRepository:
		return "repository"
	default:
		return "unknown"
	}
}

// Payload is a validated submission, ready to be sent
type Payload struct {
	Method      Method
	Role        Role
	ArchivePath string
	RepoURL     string
	Branch      string
}

// BuildArchive validates an archive submission. The path must name a single
// regular file ending in .zip; size and content are left to the service.
func BuildArchive(path string, role Role) (Payload, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Payload{}, fmt.Errorf("%w: no archive selected", ErrInvalidInput)
	}
	if !strings.HasSuffix(strings.ToLower(path), ArchiveExtension) {
		return Payload{}, fmt.Errorf("%w: %s is not a %s archive", ErrInvalidInput, path, ArchiveExtension)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !info.Mode().IsRegular() {
		return Payload{}, fmt.Errorf("%w: %s is not a file", ErrInvalidInput, path)
	}

	role, err = normalizeRole(role)
	if err != nil {
		return Payload{}, err
	}

	return Payload{Method: MethodArchive, Role: role, ArchivePath: path}, nil
}

// BuildRepository validates a repository submission. The locator must parse
// as a git endpoint but is sent as typed (trimmed), so scp-style locators
// reach the service unchanged. An empty branch defaults to DefaultBranch.
func BuildRepository(locator, branch string, role Role) (Payload, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return Payload{}, fmt.Errorf("%w: repository URL is required", ErrInvalidInput)
	}
	if _, err := transport.NewEndpoint(locator); err != nil {
		return Payload{}, fmt.Errorf("%w: repository URL %q: %v", ErrInvalidInput, locator, err)
	}

	branch = strings.TrimSpace(branch)
	if branch == "" {
		branch = DefaultBranch
	}

	role, err := normalizeRole(role)
	if err != nil {
		return Payload{}, err
	}

	return Payload{Method: MethodRepository, Role: role, RepoURL: locator, Branch: branch}, nil
}

func normalizeRole(role Role) (Role, error) {
	return ParseRole(string(role))
}
