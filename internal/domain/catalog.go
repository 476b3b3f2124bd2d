// Package domain contains core business types for the fleet contract
// request portal: form drafts, fixed option catalogs, contract terms
// and the submission result shape.
package domain

// Provinces lists the Angolan provinces accepted for the client address.
var Provinces = []string{
	"Luanda", "Bengo", "Benguela", "Bié", "Cabinda",
	"Cuando Cubango", "Cuanza Norte", "Cuanza Sul", "Cunene",
	"Huambo", "Huíla", "Lunda Norte", "Lunda Sul",
	"Malanje", "Moxico", "Namibe", "Uíge", "Zaire",
}

// VehicleMakes lists the manufacturers covered by maintenance contracts.
var VehicleMakes = []string{"Volvo", "Dongfeng"}

// VehicleModels maps each make to its fixed model list. The model field
// of a draft is only meaningful relative to the currently selected make.
var VehicleModels = map[string][]string{
	"Volvo": {
		"Volvo FMX 440",
		"Volvo FMX 480",
		"Volvo FMX 520",
		"Volvo FH 460",
		"Volvo FH 520",
		"Volvo FH 540",
		"Volvo FL 240",
		"Volvo FL 280",
		"Volvo FL 420",
		"Volvo FM 380",
		"Volvo FM 420",
	},
	"Dongfeng": {
		"Dongfeng KX 560",
		"Dongfeng KL 465",
		"Dongfeng KC 450",
		"Dongfeng KC 385",
		"Dongfeng KL 450",
		"Dongfeng KR 220",
		"Dongfeng KR 190",
		"Captan 125",
	},
}

// ModelsForMake returns the model options for a make. Unknown makes
// (including the empty string) have no models.
func ModelsForMake(make string) []string {
	return VehicleModels[make]
}

// OperationTypes lists the accepted vehicle operation categories.
var OperationTypes = []string{
	"Transporte de Contentores",
	"Construção",
	"Mineração",
	"Distribuição",
	"Transporte de Combustível",
	"Transporte de Carga Geral",
	"Outro",
}
