package jobs

import (
	"fmt"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

type toolInfo struct {
	name     string
	category models.ToolCategory
}

var toolRegistry = map[string]toolInfo{
	"floor_jack":           {"Floor jack", models.ToolCategoryLifting},
	"jack_stands":          {"Jack stands", models.ToolCategoryLifting},
	"transmission_jack":    {"Transmission jack", models.ToolCategoryLifting},
	"socket_set":           {"Socket set", models.ToolCategoryHandTool},
	"wrench_set":           {"Combination wrench set", models.ToolCategoryHandTool},
	"screwdriver_set":      {"Screwdriver set", models.ToolCategoryHandTool},
	"torque_wrench":        {"Torque wrench", models.ToolCategoryHandTool},
	"lug_wrench":           {"Lug wrench", models.ToolCategoryHandTool},
	"oil_filter_wrench":    {"Oil filter wrench", models.ToolCategoryHandTool},
	"brake_caliper_tool":   {"Brake caliper piston tool", models.ToolCategoryHandTool},
	"terminal_brush":       {"Battery terminal brush", models.ToolCategoryHandTool},
	"tow_strap":            {"Tow strap", models.ToolCategoryHandTool},
	"impact_wrench":        {"Impact wrench", models.ToolCategoryPowerTool},
	"air_compressor":       {"Portable air compressor", models.ToolCategoryPowerTool},
	"vacuum_pump":          {"A/C vacuum pump", models.ToolCategoryPowerTool},
	"tire_inflator":        {"Tire inflator", models.ToolCategoryPowerTool},
	"obd2_scanner":         {"OBD-II scan tool", models.ToolCategoryDiagnostic},
	"multimeter":           {"Digital multimeter", models.ToolCategoryDiagnostic},
	"battery_load_tester":  {"Battery load tester", models.ToolCategoryDiagnostic},
	"smoke_machine":        {"EVAP / intake smoke machine", models.ToolCategoryDiagnostic},
	"compression_tester":   {"Compression tester", models.ToolCategoryDiagnostic},
	"tire_pressure_gauge":  {"Tire pressure gauge", models.ToolCategoryDiagnostic},
	"manifold_gauge_set":   {"A/C manifold gauge set", models.ToolCategoryDiagnostic},
	"leak_detector":        {"Refrigerant leak detector", models.ToolCategoryDiagnostic},
	"drain_pan":            {"Drain pan", models.ToolCategoryFluidHandling},
	"funnel":               {"Funnel", models.ToolCategoryFluidHandling},
	"fluid_pump":           {"Fluid transfer pump", models.ToolCategoryFluidHandling},
	"brake_bleeder_kit":    {"Brake bleeder kit", models.ToolCategoryFluidHandling},
	"refrigerant_recovery": {"Refrigerant recovery machine", models.ToolCategoryFluidHandling},
	"test_light":           {"Test light", models.ToolCategoryElectrical},
	"memory_saver":         {"OBD memory saver", models.ToolCategoryElectrical},
	"jump_pack":            {"Jump starter pack", models.ToolCategoryElectrical},
	"flashlight":           {"Flashlight", models.ToolCategoryElectrical},
	"safety_glasses":       {"Safety glasses", models.ToolCategorySafety},
	"nitrile_gloves":       {"Nitrile gloves", models.ToolCategorySafety},
	"insulated_gloves":     {"Insulated gloves", models.ToolCategorySafety},
	"wheel_chocks":         {"Wheel chocks", models.ToolCategorySafety},
	"reflective_triangles": {"Reflective warning triangles", models.ToolCategorySafety},
	"high_visibility_vest": {"High-visibility vest", models.ToolCategorySafety},
}

type checklistItem struct {
	id       string
	required bool
}

var checklists = map[models.ServiceCategory][]checklistItem{
	models.ServiceOilChange: {
		{"floor_jack", true},
		{"jack_stands", true},
		{"socket_set", true},
		{"oil_filter_wrench", true},
		{"drain_pan", true},
		{"funnel", false},
		{"torque_wrench", false},
		{"nitrile_gloves", true},
	},
	models.ServiceBrake: {
		{"floor_jack", true},
		{"jack_stands", true},
		{"lug_wrench", true},
		{"socket_set", true},
		{"brake_caliper_tool", true},
		{"torque_wrench", true},
		{"brake_bleeder_kit", false},
		{"safety_glasses", true},
	},
	models.ServiceTire: {
		{"floor_jack", true},
		{"impact_wrench", true},
		{"torque_wrench", true},
		{"tire_pressure_gauge", true},
		{"air_compressor", true},
		{"wheel_chocks", false},
	},
	models.ServiceBattery: {
		{"multimeter", true},
		{"battery_load_tester", true},
		{"wrench_set", true},
		{"terminal_brush", false},
		{"memory_saver", false},
		{"insulated_gloves", true},
		{"safety_glasses", true},
	},
	models.ServiceEngineDiagnostic: {
		{"obd2_scanner", true},
		{"multimeter", true},
		{"test_light", true},
		{"smoke_machine", false},
		{"compression_tester", false},
		{"flashlight", false},
	},
	models.ServiceTransmission: {
		{"floor_jack", true},
		{"jack_stands", true},
		{"transmission_jack", false},
		{"obd2_scanner", true},
		{"socket_set", true},
		{"torque_wrench", true},
		{"drain_pan", true},
		{"fluid_pump", true},
	},
	models.ServiceAC: {
		{"manifold_gauge_set", true},
		{"refrigerant_recovery", true},
		{"vacuum_pump", true},
		{"leak_detector", false},
		{"safety_glasses", true},
		{"nitrile_gloves", true},
	},
	models.ServiceGeneralRepair: {
		{"socket_set", true},
		{"wrench_set", true},
		{"screwdriver_set", true},
		{"floor_jack", false},
		{"jack_stands", false},
		{"multimeter", false},
		{"safety_glasses", true},
	},
	models.ServiceEmergencyRoadside: {
		{"jump_pack", true},
		{"lug_wrench", true},
		{"tire_inflator", true},
		{"reflective_triangles", true},
		{"high_visibility_vest", true},
		{"flashlight", true},
		{"tow_strap", false},
	},
}

func init() {
	if err := validateChecklists(checklists, toolRegistry); err != nil {
		panic(err)
	}
}

var validToolCategories = map[models.ToolCategory]bool{
	models.ToolCategoryHandTool:      true,
	models.ToolCategoryPowerTool:     true,
	models.ToolCategoryDiagnostic:    true,
	models.ToolCategorySafety:        true,
	models.ToolCategoryLifting:       true,
	models.ToolCategoryFluidHandling: true,
	models.ToolCategoryElectrical:    true,
}

// validateChecklists checks every service category has a checklist of known,
// unique tools with at least one required entry.
func validateChecklists(lists map[models.ServiceCategory][]checklistItem, registry map[string]toolInfo) error {
	for id, info := range registry {
		if !validToolCategories[info.category] {
			return fmt.Errorf("tool %q has unknown category %q", id, info.category)
		}
		if info.name == "" {
			return fmt.Errorf("tool %q has no name", id)
		}
	}
	for _, cat := range models.ServiceCategories {
		items, ok := lists[cat]
		if !ok {
			return fmt.Errorf("service category %q has no tools checklist", cat)
		}
		seen := make(map[string]bool, len(items))
		required := 0
		for _, it := range items {
			if _, known := registry[it.id]; !known {
				return fmt.Errorf("checklist %q references unknown tool %q", cat, it.id)
			}
			if seen[it.id] {
				return fmt.Errorf("checklist %q lists tool %q twice", cat, it.id)
			}
			seen[it.id] = true
			if it.required {
				required++
			}
		}
		if required == 0 {
			return fmt.Errorf("checklist %q has no required tools", cat)
		}
	}
	return nil
}

// ToolsFor returns the ordered tools checklist for a service category.
func ToolsFor(cat models.ServiceCategory) []models.ToolRequirement {
	items := checklists[cat]
	out := make([]models.ToolRequirement, 0, len(items))
	for _, it := range items {
		info := toolRegistry[it.id]
		out = append(out, models.ToolRequirement{
			ID:       it.id,
			Name:     info.name,
			Required: it.required,
			Category: info.category,
		})
	}
	return out
}

// missingRequiredTools lists required tools not marked checked, in checklist order.
func missingRequiredTools(tools []models.ToolRequirement, checked map[string]bool) []string {
	var missing []string
	for _, t := range tools {
		if t.Required && !checked[t.ID] {
			missing = append(missing, t.ID)
		}
	}
	return missing
}
