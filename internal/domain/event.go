package domain

// Event is the envelope published to downstream streams. Exactly one payload
// field is set.
type Event struct {
	EventID   string          `json:"eventId"`
	ScrapTime int64           `json:"scrapTime"`
	Product   *ProductChange  `json:"productChange,omitempty"`
	Position  *PositionChange `json:"positionChange,omitempty"`
	Category  *CategoryChange `json:"categoryChange,omitempty"`
}

// ProductChange is the normalized full-product record.
type ProductChange struct {
	ProductID            int64                 `json:"productId"`
	Title                string                `json:"title"`
	Category             *ProductCategory      `json:"category"`
	Rating               float64               `json:"rating"`
	ReviewsAmount        int64                 `json:"reviewsAmount"`
	Orders               int64                 `json:"orders"`
	TotalAvailableAmount int64                 `json:"totalAvailableAmount"`
	Description          string                `json:"description,omitempty"`
	Attributes           []string              `json:"attributes,omitempty"`
	Tags                 []string              `json:"tags,omitempty"`
	Characteristics      []CharacteristicGroup `json:"characteristics,omitempty"`
	Skus                 []ProductChangeSku    `json:"skus"`
	Seller               *ProductSeller        `json:"seller,omitempty"`
	IsEco                bool                  `json:"isEco"`
	IsAdult              bool                  `json:"isAdult"`
}

// ProductChangeSku is a SKU with its characteristic index pairs resolved to
// titles and values.
type ProductChangeSku struct {
	SkuID           int64                    `json:"skuId"`
	AvailableAmount int64                    `json:"availableAmount"`
	FullPrice       string                   `json:"fullPrice,omitempty"`
	PurchasePrice   string                   `json:"purchasePrice,omitempty"`
	PhotoKey        string                   `json:"photoKey"`
	Characteristics []ResolvedCharacteristic `json:"characteristics,omitempty"`
	Restriction     *SkuRestriction          `json:"restriction,omitempty"`
}

type ResolvedCharacteristic struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// PositionChange records one purchasable SKU at its catalog rank.
type PositionChange struct {
	Position   int64 `json:"position"`
	ProductID  int64 `json:"productId"`
	SkuID      int64 `json:"skuId"`
	CategoryID int64 `json:"categoryId"`
}

type CategoryChange struct {
	Category Category `json:"category"`
}
