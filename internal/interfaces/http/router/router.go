// Package router mounts the API route table on a gin engine.
package router

import (
	"github.com/gin-gonic/gin"
)

// API is the versioned route prefix, /api/v1 by default
type API struct {
	engine     *gin.Engine
	version    string
	middleware []gin.HandlerFunc
}

// Option configures an API
type Option func(*API)

// WithAPIVersion sets the version segment of the base path
func WithAPIVersion(version string) Option {
	return func(a *API) { a.version = version }
}

// New creates the API prefix on engine, /api/v1 unless configured
func New(engine *gin.Engine, opts ...Option) *API {
	a := &API{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Use adds middleware in front of API routes only; /health and /swagger
// stay outside
func (a *API) Use(middleware ...gin.HandlerFunc) *API {
	a.middleware = append(a.middleware, middleware...)
	return a
}

// BasePath returns the prefix every table route is mounted under
func (a *API) BasePath() string { return "/api/" + a.version }

// Group summarizes one mounted resource family for startup logging
type Group struct {
	Name   string
	Routes int
}

// Mount registers routes with one gin group per leading path segment and
// returns the groups in table order
func (a *API) Mount(routes []Route, cfg APIConfig) []Group {
	api := a.engine.Group(a.BasePath(), a.middleware...)

	var (
		groups []Group
		index  = map[string]int{}
		byName = map[string]*gin.RouterGroup{}
	)
	for _, rt := range routes {
		name, rest := splitPrefix(rt.Path)
		g, ok := byName[name]
		if !ok {
			g = api.Group("/" + name)
			byName[name] = g
			index[name] = len(groups)
			groups = append(groups, Group{Name: name})
		}
		g.Handle(rt.Method, rest, chain(rt, cfg)...)
		groups[index[name]].Routes++
	}
	return groups
}
