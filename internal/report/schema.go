package report

// reportSchema is the contract the marshalled report payload must meet.
// Conversion rates have no upper bound: a funnel edge whose target is
// reachable without passing through the source can exceed 100.
var reportSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"generated_at", "company_id", "pipeline", "interviews", "conversion"},
	"properties": map[string]interface{}{
		"generated_at": map[string]interface{}{"type": "string"},
		"company_id":   map[string]interface{}{"type": "string", "minLength": 1},
		"pipeline": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"total_applications", "active", "stage_counts", "average_time_to_hire_days"},
			"properties": map[string]interface{}{
				"total_applications":        map[string]interface{}{"type": "integer", "minimum": 0},
				"active":                    map[string]interface{}{"type": "integer", "minimum": 0},
				"stage_counts":              map[string]interface{}{"type": "object"},
				"average_time_to_hire_days": map[string]interface{}{"type": "number", "minimum": 0},
			},
		},
		"interviews": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"total", "completion_rate", "no_show_rate", "average_rating", "decision_breakdown", "type_breakdown"},
			"properties": map[string]interface{}{
				"total":              map[string]interface{}{"type": "integer", "minimum": 0},
				"completion_rate":    map[string]interface{}{"type": "number", "minimum": 0, "maximum": 100},
				"no_show_rate":       map[string]interface{}{"type": "number", "minimum": 0, "maximum": 100},
				"average_rating":     map[string]interface{}{"type": "number", "minimum": 0, "maximum": 5},
				"decision_breakdown": map[string]interface{}{"type": "object"},
				"type_breakdown":     map[string]interface{}{"type": "object"},
			},
		},
		"conversion": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"from", "to", "rate"},
			"properties": map[string]interface{}{
				"from": map[string]interface{}{"type": "string", "minLength": 1},
				"to":   map[string]interface{}{"type": "string", "minLength": 1},
				"rate": map[string]interface{}{"type": "number", "minimum": 0},
			},
		},
	},
}
