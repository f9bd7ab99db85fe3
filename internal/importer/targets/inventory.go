package targets

import "github.com/belisarialeskovac-maker/opsdash/internal/importer"

func init() {
	registerInventory()
}

func registerInventory() {
	importer.Register(importer.Target{
		Key:       "inventory",
		Label:     "Inventory",
		Table:     "inventory",
		KeyFields: []string{"imei"},
		Columns: []importer.FieldSpec{
			{Name: "agent", Type: importer.FieldText, Required: true, Reference: importer.RefAgent},
			{Name: "imei", Type: importer.FieldText, Required: true, Normalizer: NormalizeIMEI},
			{Name: "model", Type: importer.FieldText, Required: true},
			{Name: "color", Type: importer.FieldText},
			{Name: "appleIdUsername", DBColumn: "apple_id_username", Type: importer.FieldText},
			{Name: "appleIdPassword", DBColumn: "apple_id_password", Type: importer.FieldText},
			{Name: "remarks", Type: importer.FieldText},
		},
	})
}
