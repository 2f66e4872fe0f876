package domain

// Section names of a property record, in rendering order. The order is declared
// here rather than derived from map iteration so document output is stable.
const (
	SectionDescription = "description"
	SectionDesign      = "design_and_layout"
	SectionLiving      = "living_experience"
	SectionPhysical    = "physical_features"
	SectionEquipment   = "equipment_and_handover_materials"
	SectionLegal       = "legal_and_product_status"
	SectionGroups      = "property_groups"
	SectionMisc        = "misc"
)

// SectionOrder lists every section a property record is rendered into.
func SectionOrder() []string {
	return []string{
		SectionDescription,
		SectionDesign,
		SectionLiving,
		SectionPhysical,
		SectionEquipment,
		SectionLegal,
		SectionGroups,
		SectionMisc,
	}
}

// PropertyRecord is the source-of-truth listing entity as received from callers.
// Nested sections hold arbitrary JSON-shaped data.
type PropertyRecord struct {
	ID                            string           `json:"id"`
	UnitID                        string           `json:"unitId,omitempty"`
	Description                   string           `json:"description,omitempty"`
	DesignAndLayout               map[string]any   `json:"design_and_layout,omitempty"`
	LivingExperience              map[string]any   `json:"living_experience,omitempty"`
	PhysicalFeatures              map[string]any   `json:"physical_features,omitempty"`
	EquipmentAndHandoverMaterials map[string]any   `json:"equipment_and_handover_materials,omitempty"`
	LegalAndProductStatus         map[string]any   `json:"legal_and_product_status,omitempty"`
	PropertyGroups                []map[string]any `json:"property_groups,omitempty"`
	CreatedAt                     string           `json:"created_at,omitempty"`
	UpdatedAt                     string           `json:"updated_at,omitempty"`
}

// Normalize replaces nil sections with empty ones. Sections default to empty
// associative structures when absent, never nil.
func (p *PropertyRecord) Normalize() {
	if p.DesignAndLayout == nil {
		p.DesignAndLayout = map[string]any{}
	}
	if p.LivingExperience == nil {
		p.LivingExperience = map[string]any{}
	}
	if p.PhysicalFeatures == nil {
		p.PhysicalFeatures = map[string]any{}
	}
	if p.EquipmentAndHandoverMaterials == nil {
		p.EquipmentAndHandoverMaterials = map[string]any{}
	}
	if p.LegalAndProductStatus == nil {
		p.LegalAndProductStatus = map[string]any{}
	}
	if p.PropertyGroups == nil {
		p.PropertyGroups = []map[string]any{}
	}
}

// Section returns the raw content of a named section. The misc section is
// synthesized from the identifier and timestamp fields.
func (p *PropertyRecord) Section(name string) any {
	switch name {
	case SectionDescription:
		return p.Description
	case SectionDesign:
		return p.DesignAndLayout
	case SectionLiving:
		return p.LivingExperience
	case SectionPhysical:
		return p.PhysicalFeatures
	case SectionEquipment:
		return p.EquipmentAndHandoverMaterials
	case SectionLegal:
		return p.LegalAndProductStatus
	case SectionGroups:
		groups := make([]any, len(p.PropertyGroups))
		for i, g := range p.PropertyGroups {
			groups[i] = g
		}
		return groups
	case SectionMisc:
		return map[string]any{
			"unitId":     p.UnitID,
			"created_at": p.CreatedAt,
			"updated_at": p.UpdatedAt,
		}
	default:
		return nil
	}
}
