package domain

// ProductCategory is the storefront's top-level grouping.
type ProductCategory string

const (
	CategoryAirFresheners ProductCategory = "Automirisi"
	CategorySportsGear    ProductCategory = "Sportska oprema"
	CategoryCases         ProductCategory = "Case"
)

// Product is catalog data. This subsystem only reads it; writes happen through
// cmd/migrate or directly in the database.
type Product struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	Slug             string          `json:"slug" gorm:"size:120;uniqueIndex;not null"`
	Name             string          `json:"name" gorm:"size:160;not null"`
	Category         ProductCategory `json:"category" gorm:"size:40;not null"`
	Subcategory      string          `json:"subcategory,omitempty" gorm:"size:80"`
	ShortDescription string          `json:"shortDescription" gorm:"size:255"`
	Description      string          `json:"description" gorm:"type:text"`
	Scent            string          `json:"scent,omitempty" gorm:"size:80"`
	PriceEur         float64         `json:"priceEur" gorm:"not null"`
	Stock            int             `json:"stock" gorm:"not null"`
	Featured         bool            `json:"featured"`
	Images           []string        `json:"images" gorm:"-"`
}

// ProductImage is a row of the product_images table, ordered by SortOrder.
type ProductImage struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProductID uint   `json:"productId" gorm:"index;not null"`
	ImageURL  string `json:"imageUrl" gorm:"size:512;not null"`
	SortOrder int    `json:"sortOrder" gorm:"not null"`
}

// FallbackProductImage is served when a product has no images configured.
const FallbackProductImage = "/img/products/placeholder-product.svg"

// FallbackCatalog is the compiled-in product table used when no database is
// configured or the database is unreachable. It keeps the storefront browsable
// in degraded mode.
func FallbackCatalog() []Product {
	return []Product{
		{
			ID:               1,
			Slug:             "dinamo-plavi-automiris",
			Name:             "Dinamo Plavi Automiris",
			Category:         CategoryAirFresheners,
			ShortDescription: "Personalizirani dres automiris u plavoj varijanti.",
			Description:      "Premium automiris u obliku dresa kluba, sa postojanim mirisom i jacom zasicenoscu boje za dugotrajan vizualni dojam.",
			Scent:            "Ocean Breeze",
			PriceEur:         8.9,
			Stock:            32,
			Featured:         true,
			Images:           []string{FallbackProductImage},
		},
		{
			ID:               2,
			Slug:             "slaven-belupo-automiris",
			Name:             "Slaven Belupo Automiris",
			Category:         CategoryAirFresheners,
			ShortDescription: "Klupski automiris sa prepoznatljivim detaljima.",
			Description:      "Automiris dizajniran za navijace koji zele klupski identitet u automobilu. Vizual i miris ostaju stabilni kroz duzi period.",
			Scent:            "Fresh Citrus",
			PriceEur:         8.5,
			Stock:            21,
			Featured:         true,
			Images:           []string{FallbackProductImage},
		},
		{
			ID:               3,
			Slug:             "personalizirani-dres-automiris",
			Name:             "Personalizirani Dres Automiris",
			Category:         CategoryAirFresheners,
			ShortDescription: "Model sa custom imenom i brojem.",
			Description:      "Potpuno personaliziran model automirisa: birate boje, ime i broj. Idealan kao poklon ili promo artikl za timove.",
			Scent:            "Black Ice",
			PriceEur:         9.9,
			Stock:            17,
			Featured:         true,
			Images:           []string{FallbackProductImage},
		},
		{
			ID:               4,
			Slug:             "sport-majica-performance",
			Name:             "Sport Majica Performance",
			Category:         CategorySportsGear,
			ShortDescription: "Lagana i prozracna majica za trening.",
			Description:      "Majica od brzosuseceg materijala sa ergonomskim krojem. Namijenjena za intenzivne treninge i svakodnevno nosenje.",
			PriceEur:         24.9,
			Stock:            58,
			Images:           []string{FallbackProductImage},
		},
		{
			ID:               5,
			Slug:             "sportski-ruksak-team",
			Name:             "Sportski Ruksak Team",
			Category:         CategorySportsGear,
			ShortDescription: "Ruksak s vise pretinaca i jacim dnom.",
			Description:      "Praktican ruksak za trening i putovanja. Ojacano dno, bocni dzepovi i prostor za osnovnu opremu.",
			PriceEur:         32.5,
			Stock:            44,
			Images:           []string{FallbackProductImage},
		},
		{
			ID:               6,
			Slug:             "zastitna-maska-iphone",
			Name:             "Zastitna Maska iPhone",
			Category:         CategoryCases,
			ShortDescription: "Tanka maska s ojacanim rubovima.",
			Description:      "Maska otporna na udarce, s podignutim rubom oko kamere i ekrana. Dostupna za novije iPhone modele.",
			PriceEur:         14.9,
			Stock:            73,
			Images:           []string{FallbackProductImage},
		},
	}
}
