package testutil

// Achievement is the payload served for /data/wow/achievement/6.
func Achievement() map[string]interface{} {
	return map[string]interface{}{
		"id":   6,
		"name": map[string]interface{}{"en_US": "Level 10"},
	}
}

// DecorSearch is a one-page search envelope.
func DecorSearch() map[string]interface{} {
	return map[string]interface{}{
		"page":        1,
		"pageSize":    100,
		"maxPageSize": 100,
		"pageCount":   1,
		"results": []interface{}{
			map[string]interface{}{
				"data": map[string]interface{}{
					"id":   101,
					"name": map[string]interface{}{"en_US": "Stone Wall Segment"},
				},
			},
		},
	}
}

// NotFound is Battle.net's 404 document.
func NotFound() map[string]interface{} {
	return map[string]interface{}{
		"code":   404,
		"type":   "BLZWEBAPI00000404",
		"detail": "Not Found",
	}
}
