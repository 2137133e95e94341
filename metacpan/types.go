package metacpan

// Release is one published version of a distribution as returned by the
// MetaCPAN release search.
type Release struct {
	Date       string `json:"date"`
	Version    string `json:"version"`
	Status     string `json:"status"`
	MainModule string `json:"main_module"`
}

type searchRequest struct {
	Size   int                 `json:"size"`
	Fields []string            `json:"fields"`
	Filter searchFilter        `json:"filter"`
	Sort   []map[string]string `json:"sort"`
}

type searchFilter struct {
	Term map[string]string `json:"term"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	Fields Release `json:"fields"`
}
