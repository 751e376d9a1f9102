package extract

import (
	"homeval/models"
	"homeval/normalize"
)

const defaultHouseTitle = "О доме"

var houseTitle = Chain{
	Selector(`[class*="--text"]`),
	Selector("span"),
}

// House labels as rendered by the site.
const (
	labelYearBuilt    = "Год постройки"
	labelHouseType    = "Тип дома"
	labelSeries       = "Строительная серия"
	labelCeiling      = "Высота потолков"
	labelGas          = "Газоснабжение"
	labelHeating      = "Отопление"
	labelSlabs        = "Тип перекрытий"
	labelEntrances    = "Подъездов"
	labelApartments   = "Квартир"
	labelRenovation   = "Реновация"
	labelEmergency    = "Аварийность"
	labelPlayground   = "Детская площадка"
	labelSportsGround = "Спортивная площадка"
	labelElevators    = "Количество лифтов"
	keywordPassenger  = "пассажир"
	keywordFreight    = "грузов"
)

// House extracts the "about the house" rows. It returns nil when the house
// root is absent.
func (e *Engine) House(doc *Document) (*models.HouseRecord, error) {
	root, err := e.locate("house", e.houseRoot, doc)
	if err != nil || root == nil {
		return nil, err
	}

	rec := &models.HouseRecord{Meta: models.Meta{FetchedAt: e.now()}}

	// the title only comes from inside AboutHome
	container := root.Find(`[data-testid="AboutHome"]`).First()
	if container.Length() == 0 {
		container = root
	} else {
		rec.Title = value(houseTitle, container)
	}
	rec.Rows = e.rows.Rows(container)
	if rec.Title == "" {
		rec.Title = defaultHouseTitle
	}
	if rec.Rows == nil {
		rec.Rows = []models.HouseRow{}
	}
	rec.Parsed = ParseHouseFacts(RowTable(rec.Rows))
	return rec, nil
}

// ParseHouseFacts projects the known rows onto typed fields. Missing or
// unparsable rows leave their field nil.
func ParseHouseFacts(t RowTable) models.HouseFacts {
	f := models.HouseFacts{
		YearBuilt:           normalize.Number(t.Lookup(labelYearBuilt)),
		HouseType:           optional(t.Lookup(labelHouseType)),
		Series:              optional(t.Lookup(labelSeries)),
		CeilingHeightMeters: normalize.Number(t.Lookup(labelCeiling)),
		GasSupply:           normalize.YesNo(t.Lookup(labelGas)),
		Heating:             optional(t.Lookup(labelHeating)),
		SlabType:            optional(t.Lookup(labelSlabs)),
		EntrancesCount:      normalize.Number(t.Lookup(labelEntrances)),
		ApartmentsCount:     normalize.Number(t.Lookup(labelApartments)),
		Renovation:          normalize.YesNo(t.Lookup(labelRenovation)),
		Emergency:           normalize.YesNo(t.Lookup(labelEmergency)),
		Playground:          normalize.YesNo(t.Lookup(labelPlayground)),
		SportsGround:        normalize.YesNo(t.Lookup(labelSportsGround)),
	}
	if elevators := t.Lookup(labelElevators); elevators != "" {
		f.ElevatorsPassenger = normalize.CountBefore(elevators, keywordPassenger)
		f.ElevatorsFreight = normalize.CountBefore(elevators, keywordFreight)
	}
	return f
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
