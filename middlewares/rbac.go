package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"brainquest/internal/logger"
	"brainquest/models"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	mongodbadapter "github.com/casbin/mongodb-adapter/v3"
	"github.com/gin-gonic/gin"
)

const rbacModel = `
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

var defaultPolicies = [][]string{
	{"admin", "daily", "rotate"},
	{"admin", "day", "rollover"},
	{"moderator", "day", "rollover"},
}

// AdminLookup resolves the admin role of a user
type AdminLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.Admin, error)
}

// RBAC wraps the casbin enforcer guarding the admin routes
type RBAC struct {
	enforcer *casbin.Enforcer
	admins   AdminLookup
	log      *logger.Logger
}

// NewMongoRBAC stores policies in the casbin_rule collection of the
// database named in uri.
func NewMongoRBAC(uri string, admins AdminLookup, log *logger.Logger) (*RBAC, error) {
	adapter, err := mongodbadapter.NewAdapter(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin adapter: %w", err)
	}
	return NewRBAC(adapter, admins, log)
}

// NewRBAC builds an enforcer over adapter; a nil adapter keeps policies in memory.
func NewRBAC(adapter persist.Adapter, admins AdminLookup, log *logger.Logger) (*RBAC, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin model: %w", err)
	}
	var enforcer *casbin.Enforcer
	if adapter == nil {
		enforcer, err = casbin.NewEnforcer(m)
	} else {
		enforcer, err = casbin.NewEnforcer(m, adapter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}

	r := &RBAC{enforcer: enforcer, admins: admins, log: log}
	if err := r.ensureDefaultPolicies(); err != nil {
		return nil, err
	}
	log.Info("casbin RBAC initialized")
	return r, nil
}

func (r *RBAC) ensureDefaultPolicies() error {
	added := false
	for _, p := range defaultPolicies {
		exists, err := r.enforcer.HasPolicy(p[0], p[1], p[2])
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := r.enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("add policy %v: %w", p, err)
		}
		r.log.Info("added default policy", "role", p[0], "resource", p[1], "action", p[2])
		added = true
	}
	if added && r.enforcer.GetAdapter() != nil {
		if err := r.enforcer.SavePolicy(); err != nil {
			r.log.Warn("failed to save policies", "error", err)
		}
	}
	return nil
}

// AdminMiddleware requires the authenticated caller to hold an admin role.
// It must run after AuthMiddleware.
func (r *RBAC) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		admin, err := r.admins.FindByUserID(ctx, UserID(c))
		if errors.Is(err, models.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
			return
		}
		if err != nil {
			r.log.Error("admin lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Permission check failed"})
			return
		}
		c.Set("adminRole", admin.Role)
		c.Next()
	}
}

// RBACMiddleware checks if the admin has permission for the requested action
func (r *RBAC) RBACMiddleware(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("adminRole")
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin role not found"})
			return
		}

		allowed, err := r.enforcer.Enforce(role, resource, action)
		if err != nil {
			r.log.Error("casbin enforce error", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Permission check failed"})
			return
		}
		if !allowed {
			r.log.Warn("permission denied", "role", role, "resource", resource, "action", action)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
