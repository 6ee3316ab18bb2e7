package middleware

import (
	"github.com/labstack/echo/v4"
)

// APIVersion represents API version information
type APIVersion struct {
	Version string `json:"version"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionMiddleware stamps version headers on versioned route groups
type VersionMiddleware struct {
	supportedVersions map[string]APIVersion
	defaultVersion    string
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{
		supportedVersions: map[string]APIVersion{
			"v1": {
				Version: "v1",
				Status:  "active",
				Message: "Current stable API version",
			},
		},
		defaultVersion: "v1",
	}
}

// VersionHeader adds X-API-Version and X-API-Status to every response of the group
func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-API-Version", version)
			if ver, exists := vm.supportedVersions[version]; exists {
				h.Set("X-API-Status", ver.Status)
			}
			return next(c)
		}
	}
}

// VersionGroup creates /api/<version> with the version headers applied
func (vm *VersionMiddleware) VersionGroup(e *echo.Echo, version string) *echo.Group {
	group := e.Group("/api/" + version)
	group.Use(vm.VersionHeader(version))
	return group
}

func (vm *VersionMiddleware) CurrentVersion() string {
	return vm.defaultVersion
}
