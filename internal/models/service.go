package models

import "time"

// Service представляет позицию каталога: сервис, для которого можно
// купить одноразовый номер или арендовать долгосрочный.
type Service struct {
	Name              string    `json:"name"`
	Price             float64   `json:"price"`
	Available         bool      `json:"available"`
	LTRAvailable      bool      `json:"ltr_available"`
	LTRPrice          float64   `json:"ltr_price"`
	LTRShortPrice     float64   `json:"ltr_short_price"`
	RecommendedMarkup float64   `json:"recommended_markup"`
	LastUpdated       time.Time `json:"last_updated"`
}
