package targets

import "github.com/belisarialeskovac-maker/opsdash/internal/importer"

func init() {
	registerShops()
}

// ShopStatuses lists the accepted shop status values. The first entry is
// the default for new shops created outside an import.
var ShopStatuses = []string{"Active", "Inactive", "Pending"}

func registerShops() {
	importer.Register(importer.Target{
		Key:       "shops",
		Label:     "Shops",
		Table:     "shops",
		KeyFields: []string{"shopId"},
		Columns: []importer.FieldSpec{
			{Name: "shopId", DBColumn: "shop_id", Type: importer.FieldText, Required: true},
			{Name: "clientName", DBColumn: "client_name", Type: importer.FieldText, Required: true},
			{Name: "agent", Type: importer.FieldText, Required: true, Reference: importer.RefAgent},
			{Name: "kycCompletedDate", DBColumn: "kyc_completed_date", Type: importer.FieldDate, Required: true},
			{Name: "status", Type: importer.FieldEnum, Required: true, EnumValues: ShopStatuses},
		},
	})
}
