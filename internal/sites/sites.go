// Package sites models the study metadata: measurement sites, their
// coordinates, and the catchment areas that group them. A site may only be
// added to a catchment whose bounds contain it.
package sites

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rivervane/catchment/pkg/config"
)

var (
	// ErrDuplicateSite is returned when a site is added twice.
	ErrDuplicateSite = errors.New("site already added")
	// ErrOutsideCatchment is returned when a site with a known location
	// falls outside the catchment's bounds.
	ErrOutsideCatchment = errors.New("site not within catchment bounds")
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Site is a fixed measurement location. Location is nil when the site's
// coordinates are unknown.
type Site struct {
	Name     string
	Location *Coordinate
}

// Bounds is a latitude/longitude bounding box. The zero value means the
// extent is unknown and containment checks pass trivially.
type Bounds struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// IsZero reports whether no extent was configured.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Contains reports whether the coordinate lies inside the box. An unknown
// extent contains everything.
func (b Bounds) Contains(c Coordinate) bool {
	if b.IsZero() {
		return true
	}
	return c.Latitude >= b.MinLatitude && c.Latitude <= b.MaxLatitude &&
		c.Longitude >= b.MinLongitude && c.Longitude <= b.MaxLongitude
}

// Catchment is a named catchment area grouping measurement sites.
type Catchment struct {
	Name   string
	Bounds Bounds

	sites map[string]*Site
}

// NewCatchment creates an empty catchment.
func NewCatchment(name string, bounds Bounds) *Catchment {
	return &Catchment{
		Name:   name,
		Bounds: bounds,
		sites:  make(map[string]*Site),
	}
}

// AddSite registers a site with the catchment. Duplicate names are
// rejected, as are sites whose known location falls outside the catchment
// bounds. Sites without coordinates cannot be bounds-checked and are
// accepted.
func (c *Catchment) AddSite(site *Site) error {
	if _, ok := c.sites[site.Name]; ok {
		return fmt.Errorf("%s: %w", site.Name, ErrDuplicateSite)
	}
	if site.Location != nil && !c.Bounds.Contains(*site.Location) {
		return fmt.Errorf("%s not within %s: %w", site.Name, c.Name, ErrOutsideCatchment)
	}
	c.sites[site.Name] = site
	return nil
}

// SiteNames returns the member site names, sorted.
func (c *Catchment) SiteNames() []string {
	names := make([]string, 0, len(c.sites))
	for name := range c.sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasSite reports whether the named site belongs to the catchment.
func (c *Catchment) HasSite(name string) bool {
	_, ok := c.sites[name]
	return ok
}

// Registry holds the configured sites and catchments for one analysis run.
type Registry struct {
	sites      map[string]*Site
	catchments map[string]*Catchment
}

// FromConfig builds a registry from configuration data. Configuration
// problems (duplicate sites, sites outside their catchment, membership of
// unknown sites) are reported as errors rather than silently dropped.
func FromConfig(cfg *config.ConfigData) (*Registry, error) {
	r := &Registry{
		sites:      make(map[string]*Site),
		catchments: make(map[string]*Catchment),
	}

	for _, sd := range cfg.Sites {
		if _, ok := r.sites[sd.Name]; ok {
			return nil, fmt.Errorf("%s: %w", sd.Name, ErrDuplicateSite)
		}
		site := &Site{Name: sd.Name}
		if sd.Latitude != nil && sd.Longitude != nil {
			site.Location = &Coordinate{Latitude: *sd.Latitude, Longitude: *sd.Longitude}
		}
		r.sites[site.Name] = site
	}

	for _, cd := range cfg.Catchments {
		catchment := NewCatchment(cd.Name, Bounds{
			MinLatitude:  cd.Bounds.MinLatitude,
			MaxLatitude:  cd.Bounds.MaxLatitude,
			MinLongitude: cd.Bounds.MinLongitude,
			MaxLongitude: cd.Bounds.MaxLongitude,
		})
		for _, name := range cd.Sites {
			site, ok := r.sites[name]
			if !ok {
				return nil, fmt.Errorf("catchment %s references unknown site %q", cd.Name, name)
			}
			if err := catchment.AddSite(site); err != nil {
				return nil, err
			}
		}
		r.catchments[catchment.Name] = catchment
	}

	return r, nil
}

// Site looks up a site by name.
func (r *Registry) Site(name string) (*Site, bool) {
	site, ok := r.sites[name]
	return site, ok
}

// Catchment looks up a catchment by name.
func (r *Registry) Catchment(name string) (*Catchment, bool) {
	catchment, ok := r.catchments[name]
	return catchment, ok
}

// SiteNames returns all registered site names, sorted.
func (r *Registry) SiteNames() []string {
	names := make([]string, 0, len(r.sites))
	for name := range r.sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
