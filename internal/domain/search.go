package domain

// SearchResponse is the GraphQL makeSearch envelope. Errors carry plain
// messages only; the client classifies them by substring.
type SearchResponse struct {
	Data   *SearchData `json:"data"`
	Errors []GQLError  `json:"errors,omitempty"`
}

type GQLError struct {
	Message string `json:"message"`
}

type SearchData struct {
	MakeSearch MakeSearch `json:"makeSearch"`
}

type MakeSearch struct {
	Total        int64                `json:"total"`
	Items        []CatalogCardWrapper `json:"items"`
	CategoryTree []CategoryTreeEntry  `json:"categoryTree,omitempty"`
}

// CatalogCardWrapper is one search-result row. The card may be absent for
// promo slots, callers skip those.
type CatalogCardWrapper struct {
	CatalogCard *CatalogCard `json:"catalogCard"`
}

type CatalogCard struct {
	ProductID            int64                 `json:"productId"`
	Title                string                `json:"title,omitempty"`
	CharacteristicValues []CharacteristicValue `json:"characteristicValues,omitempty"`
}

// CategoryTreeEntry is one flat parent-pointer node of the search response's
// category tree snapshot.
type CategoryTreeEntry struct {
	Category TreeCategory `json:"category"`
}

type TreeCategory struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	Adult  bool            `json:"adult"`
	Parent *CategoryParent `json:"parent"`
}

type CategoryParent struct {
	ID int64 `json:"id"`
}

// SearchQuery is the request body posted to the GraphQL endpoint.
type SearchQuery struct {
	OperationName string          `json:"operationName"`
	Query         string          `json:"query"`
	Variables     SearchVariables `json:"variables"`
}

type SearchVariables struct {
	QueryInput QueryInput `json:"queryInput"`
}

type QueryInput struct {
	CategoryID       string     `json:"categoryId"`
	ShowAdultContent string     `json:"showAdultContent"`
	Filters          []any      `json:"filters"`
	Sort             string     `json:"sort"`
	Pagination       Pagination `json:"pagination"`
}

type Pagination struct {
	Offset int64 `json:"offset"`
	Limit  int64 `json:"limit"`
}
