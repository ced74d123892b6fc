package main

import (
	"stepform/internal/domain/form"
	"stepform/internal/domain/structure"
)

// setupStructureRegistry declares the served record types. Each structure
// maps a multi-step form onto one table: plain columns, a JSONB document
// keyed by step, and relations.
func setupStructureRegistry() (*structure.Registry, error) {
	registry := structure.NewRegistry()

	project, err := structure.New(structure.Config{
		Name:  "project",
		Table: "projects",
		Sections: []structure.Section{
			{
				Keyword: "general",
				Label:   "General",
				Fields: []form.FieldSpec{
					{Name: "name", Label: "Name", Storage: form.StorageColumn, Kind: form.KindText},
					{Name: "summary", Label: "Summary", Storage: form.StorageJSONScalar, Kind: form.KindText},
					{Name: "contact", Label: "Contact email", Storage: form.StorageJSONScalar, Kind: form.KindEmail},
					{Name: "stage", Label: "Stage", Storage: form.StorageJSONScalar, Kind: form.KindChoice,
						Choices: []form.Choice{
							{Code: "draft", Label: "Draft"},
							{Code: "active", Label: "Active"},
							{Code: "done", Label: "Done"},
						}},
					{Name: "topics", Label: "Topics", Storage: form.StorageJSONScalar, Kind: form.KindMultiChoice,
						Choices: []form.Choice{
							{Code: "research", Label: "Research"},
							{Code: "infrastructure", Label: "Infrastructure"},
							{Code: "outreach", Label: "Outreach"},
						}},
					{Name: "started", Label: "Start date", Storage: form.StorageJSONScalar, Kind: form.KindDate},
				},
			},
			{
				Keyword: "planning",
				Label:   "Planning",
				Fields: []form.FieldSpec{
					{
						Name:    "milestones",
						Label:   "Milestones",
						Storage: form.StorageJSONRepeating,
						Rows: &form.RowTemplate{Columns: []form.RowColumn{
							{Name: "title", Label: "Title", Kind: form.KindText},
							{Name: "due", Label: "Due", Kind: form.KindDate},
						}},
						Options: form.RowOptions{Label: "Milestone", MaxRows: 20},
					},
					{
						Name:    "budget",
						Label:   "Budget lines",
						Storage: form.StorageJSONRepeating,
						Rows: &form.RowTemplate{Columns: []form.RowColumn{
							{Name: "item", Label: "Item", Kind: form.KindText},
							{Name: "amount", Label: "Amount", Kind: form.KindInteger},
						}},
						Options: form.RowOptions{Label: "Budget line"},
					},
				},
			},
			{
				Keyword: "team",
				Label:   "Team",
				Fields: []form.FieldSpec{
					{
						Name:    "members",
						Label:   "Members",
						Storage: form.StorageThrough,
						Rows: &form.RowTemplate{Columns: []form.RowColumn{
							{Name: form.KeyToID, Label: "Person", Kind: form.KindText},
							{Name: form.KeyThroughID, Hidden: true},
							{Name: "role", Label: "Role", Kind: form.KindText},
						}},
						Options: form.RowOptions{Label: "Member"},
						Through: &form.ThroughSpec{
							Table:       "project_members",
							FromColumn:  "project_id",
							ToColumn:    "person_id",
							TargetTable: "people",
						},
					},
					{
						Name:    "lead",
						Label:   "Lead",
						Storage: form.StorageForeignKey,
						Rows: &form.RowTemplate{Columns: []form.RowColumn{
							{Name: form.KeyToID, Label: "Person", Kind: form.KindText},
						}},
						Link: &form.LinkSpec{
							TargetTable: "people",
							Column:      "lead_id",
						},
					},
					{
						Name:    "tags",
						Label:   "Tags",
						Storage: form.StorageForeignKey,
						Rows: &form.RowTemplate{Columns: []form.RowColumn{
							{Name: form.KeyToID, Label: "Tag", Kind: form.KindText},
						}},
						Link: &form.LinkSpec{
							TargetTable: "tags",
							Many:        true,
							JoinTable:   "project_tags",
							FromColumn:  "project_id",
							ToColumn:    "tag_id",
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if err := registry.Register(project); err != nil {
		return nil, err
	}

	person, err := structure.New(structure.Config{
		Name:  "person",
		Table: "people",
		Sections: []structure.Section{
			{
				Keyword: "profile",
				Label:   "Profile",
				Fields: []form.FieldSpec{
					{Name: "name", Label: "Name", Storage: form.StorageColumn, Kind: form.KindText},
					{Name: "email", Label: "Email", Storage: form.StorageJSONScalar, Kind: form.KindEmail},
					{
						Name:    "skills",
						Label:   "Skills",
						Storage: form.StorageJSONRepeating,
						Rows: &form.RowTemplate{Columns: []form.RowColumn{
							{Name: "skill", Label: "Skill", Kind: form.KindText},
							{Name: "level", Label: "Level", Kind: form.KindChoice},
						}},
						Options: form.RowOptions{Label: "Skill", MaxRows: 10},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if err := registry.Register(person); err != nil {
		return nil, err
	}

	return registry, nil
}
