package domain

// ProductResponse is the product-detail envelope.
type ProductResponse struct {
	Payload *ProductPayload `json:"payload"`
	Errors  []ResponseError `json:"errors,omitempty"`
}

type ProductPayload struct {
	Data *ProductData `json:"data"`
}

type ProductData struct {
	ID                   int64                 `json:"id"`
	Title                string                `json:"title"`
	Category             *ProductCategory      `json:"category"`
	Rating               string                `json:"rating"`
	ReviewsAmount        int64                 `json:"reviewsAmount"`
	OrdersAmount         int64                 `json:"ordersAmount"`
	TotalAvailableAmount int64                 `json:"totalAvailableAmount"`
	Description          string                `json:"description,omitempty"`
	Attributes           []string              `json:"attributes,omitempty"`
	Tags                 []string              `json:"tags,omitempty"`
	Photos               []ProductPhoto        `json:"photos,omitempty"`
	Characteristics      []CharacteristicGroup `json:"characteristics,omitempty"`
	SkuList              []Sku                 `json:"skuList,omitempty"`
	Seller               *ProductSeller        `json:"seller,omitempty"`
	IsEco                bool                  `json:"isEco"`
	AdultCategory        bool                  `json:"adultCategory"`
}

type ProductCategory struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	ProductAmount int64            `json:"productAmount"`
	Parent        *ProductCategory `json:"parent,omitempty"`
}

type ProductPhoto struct {
	Color    string `json:"color,omitempty"`
	PhotoKey string `json:"photoKey"`
}

// CharacteristicGroup is one indexable characteristic axis (e.g. color). A
// SKU references its variant by (charIndex, valueIndex) into these arrays,
// not by characteristic id.
type CharacteristicGroup struct {
	ID     int64                 `json:"id"`
	Title  string                `json:"title"`
	Values []CharacteristicValue `json:"values"`
}

type CharacteristicValue struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Value string `json:"value"`
}

type Sku struct {
	ID              int64               `json:"id"`
	Characteristics []SkuCharacteristic `json:"characteristics,omitempty"`
	AvailableAmount int64               `json:"availableAmount"`
	FullPrice       string              `json:"fullPrice,omitempty"`
	PurchasePrice   string              `json:"purchasePrice,omitempty"`
	Barcode         string              `json:"barcode,omitempty"`
	Restriction     *SkuRestriction     `json:"restriction,omitempty"`
}

// SkuCharacteristic is the index pair addressing one characteristic value of
// the owning product.
type SkuCharacteristic struct {
	CharIndex  int `json:"charIndex"`
	ValueIndex int `json:"valueIndex"`
}

type SkuRestriction struct {
	BoughtAmount     int64 `json:"boughtAmount"`
	RestrictedAmount int64 `json:"restrictedAmount"`
}

type ProductSeller struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Link             string    `json:"link"`
	RegistrationDate int64     `json:"registrationDate"`
	Rating           string    `json:"rating"`
	Reviews          int64     `json:"reviews"`
	Orders           int64     `json:"orders"`
	SellerAccountID  int64     `json:"sellerAccountId"`
	Contacts         []Contact `json:"contacts,omitempty"`
}

type Contact struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// CachedProduct is the slice of product detail the position matcher needs,
// kept in the read-through cache so position crawls avoid refetching full
// detail. Entries are immutable once written.
type CachedProduct struct {
	Characteristics []CharacteristicGroup `json:"characteristics"`
	SkuList         []Sku                 `json:"skuList"`
}
