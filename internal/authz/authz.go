// Package authz decides who may modify organizations and review the
// moderation queue.
package authz

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"diversityorgs/internal/models"
)

// Objects and actions checked against the policy.
const (
	ObjectOrganizations = "organizations"
	ObjectModeration    = "moderation"

	ActionModify = "modify"
	ActionReview = "review"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// defaultPolicy is used when no policy file is configured.
var defaultPolicy = [][]string{
	{"p", SubjectFromRole(models.RoleAdmin), ObjectOrganizations, ActionModify},
	{"p", SubjectFromRole(models.RoleModerator), ObjectModeration, ActionReview},
	{"g", SubjectFromRole(models.RoleAdmin), SubjectFromRole(models.RoleModerator)},
}

// Authorizer is the permission gate.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// New creates an authorizer. An empty policyPath loads the built-in policy;
// otherwise the CSV policy file is used.
func New(policyPath string) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: model: %w", err)
	}

	if policyPath != "" {
		enforcer, err := casbin.NewEnforcer(m, fileadapter.NewAdapter(policyPath))
		if err != nil {
			return nil, fmt.Errorf("authz: load policy %s: %w", policyPath, err)
		}
		return &Authorizer{enforcer: enforcer}, nil
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: %w", err)
	}
	for _, rule := range defaultPolicy {
		switch rule[0] {
		case "p":
			_, err = enforcer.AddPolicy(rule[1], rule[2], rule[3])
		case "g":
			_, err = enforcer.AddGroupingPolicy(rule[1], rule[2])
		}
		if err != nil {
			return nil, fmt.Errorf("authz: default policy: %w", err)
		}
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// SubjectFromRole maps a user role to a policy subject.
func SubjectFromRole(role string) string {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		role = models.RoleUser
	}
	return "role:" + role
}

func (a *Authorizer) allowed(user *models.User, obj, act string) bool {
	if user == nil {
		return false
	}
	ok, err := a.enforcer.Enforce(SubjectFromRole(user.Role), obj, act)
	return err == nil && ok
}

// IsSuperuser returns true if the user may modify any organization.
func (a *Authorizer) IsSuperuser(user *models.User) bool {
	return a.allowed(user, ObjectOrganizations, ActionModify)
}

// CanModify returns true if user is an organizer of org, an organizer of its
// parent organization, or a superuser. Anonymous users may not modify
// anything.
func (a *Authorizer) CanModify(user *models.User, org *models.Organization) bool {
	if user == nil || org == nil {
		return false
	}
	if models.ContainsUser(org.Organizers, user.ID) {
		return true
	}
	if org.Parent != nil && models.ContainsUser(org.Parent.Organizers, user.ID) {
		return true
	}
	return a.IsSuperuser(user)
}

// CanReview returns true if user may work the moderation queue.
func (a *Authorizer) CanReview(user *models.User) bool {
	return a.allowed(user, ObjectModeration, ActionReview)
}
