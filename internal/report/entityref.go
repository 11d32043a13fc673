package report

import "strings"

// EntityRef names the subject of an entry: either a catalog row or a free-text
// name. The zero value refers to nothing.
type EntityRef struct {
	id   uint
	name string
}

func CatalogRef(id uint) EntityRef { return EntityRef{id: id} }

func ManualRef(name string) EntityRef { return EntityRef{name: strings.TrimSpace(name)} }

// NewEntityRef builds a ref from raw request fields. Exactly one of id and
// name must be set; a zero id counts as absent.
func NewEntityRef(id *uint, name string) (EntityRef, error) {
	name = strings.TrimSpace(name)
	hasID := id != nil && *id != 0
	switch {
	case hasID && name != "":
		return EntityRef{}, invalidReference("give either a catalog id or a manual name, not both")
	case hasID:
		return CatalogRef(*id), nil
	case name != "":
		return ManualRef(name), nil
	}
	return EntityRef{}, invalidReference("either a catalog id or a manual name is required")
}

func (r EntityRef) IsCatalog() bool { return r.id != 0 }
func (r EntityRef) IsZero() bool    { return r.id == 0 && r.name == "" }
func (r EntityRef) ID() uint        { return r.id }
func (r EntityRef) Name() string    { return r.name }
