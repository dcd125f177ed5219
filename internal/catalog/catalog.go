// Package catalog contiene el catálogo inicial del almacén, usado para sembrar la colección
// de productos cuando está vacía.
package catalog

import "inventario-backend/internal/models"

// WarehouseName: el sistema trabaja con un único almacén
const WarehouseName = "HEMATOLOGIA"

const (
	SubReactivos    = "REACTIVOS"
	SubControles    = "CONTROLES"
	SubConsumibles  = "CONSUMIBLES"
	SubCalibradores = "CALIBRADORES"
)

var products = []models.Product{
	{ID: "HEM-001", Name: "Diluyente isotónico 20 L", Subwarehouse: SubReactivos},
	{ID: "HEM-002", Name: "Reactivo lisante WBC", Subwarehouse: SubReactivos},
	{ID: "HEM-003", Name: "Reactivo lisante HGB", Subwarehouse: SubReactivos},
	{ID: "HEM-004", Name: "Solución limpiadora enzimática", Subwarehouse: SubReactivos},
	{ID: "HEM-005", Name: "Colorante Wright", Subwarehouse: SubReactivos},
	{ID: "HEM-010", Name: "Control hematológico nivel bajo", Subwarehouse: SubControles},
	{ID: "HEM-011", Name: "Control hematológico nivel normal", Subwarehouse: SubControles},
	{ID: "HEM-012", Name: "Control hematológico nivel alto", Subwarehouse: SubControles},
	{ID: "HEM-020", Name: "Calibrador hematológico", Subwarehouse: SubCalibradores},
	{ID: "HEM-030", Name: "Tubos EDTA K2 4 mL", Subwarehouse: SubConsumibles},
	{ID: "HEM-031", Name: "Portaobjetos esmerilados", Subwarehouse: SubConsumibles},
	{ID: "HEM-032", Name: "Puntas de pipeta 200 µL", Subwarehouse: SubConsumibles},
	{ID: "HEM-033", Name: "Papel térmico para impresora", Subwarehouse: SubConsumibles},
}

// Products: copia del catálogo inicial
func Products() []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}
