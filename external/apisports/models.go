package apisports

// envelope is the common API-Sports response wrapper. Errors is either an
// empty array or an object keyed by error kind.
type envelope[T any] struct {
	Results  int    `json:"results"`
	Paging   paging `json:"paging"`
	Errors   any    `json:"errors"`
	Response T      `json:"response"`
}

type paging struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

type teamItem struct {
	Team struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Code    string `json:"code"`
		Country string `json:"country"`
		Logo    string `json:"logo"`
	} `json:"team"`
}

type playerItem struct {
	Player struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Firstname   string `json:"firstname"`
		Lastname    string `json:"lastname"`
		Age         *int   `json:"age"`
		Nationality string `json:"nationality"`
		Photo       string `json:"photo"`
	} `json:"player"`
	Statistics []playerStatistics `json:"statistics"`
}

// playerStatistics mirrors one team/league block. Every counter can be null.
type playerStatistics struct {
	Games struct {
		Appearences *int    `json:"appearences"`
		Minutes     *int    `json:"minutes"`
		Position    string  `json:"position"`
		Rating      *string `json:"rating"`
	} `json:"games"`
	Shots struct {
		Total *int `json:"total"`
	} `json:"shots"`
	Goals struct {
		Total    *int `json:"total"`
		Conceded *int `json:"conceded"`
		Assists  *int `json:"assists"`
		Saves    *int `json:"saves"`
	} `json:"goals"`
	Passes struct {
		Total    *int     `json:"total"`
		Accuracy *float64 `json:"accuracy"`
	} `json:"passes"`
	Tackles struct {
		Total         *int `json:"total"`
		Blocks        *int `json:"blocks"`
		Interceptions *int `json:"interceptions"`
	} `json:"tackles"`
	Duels struct {
		Total *int `json:"total"`
		Won   *int `json:"won"`
	} `json:"duels"`
	Dribbles struct {
		Success *int `json:"success"`
	} `json:"dribbles"`
	Fouls struct {
		Drawn     *int `json:"drawn"`
		Committed *int `json:"committed"`
	} `json:"fouls"`
	Cards struct {
		Yellow *int `json:"yellow"`
		Red    *int `json:"red"`
	} `json:"cards"`
	Penalty struct {
		Scored *int `json:"scored"`
		Missed *int `json:"missed"`
		Saved  *int `json:"saved"`
	} `json:"penalty"`
}
