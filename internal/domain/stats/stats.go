package stats

// Counts is the admin overview. All three numbers come from the same read.
type Counts struct {
	Users    int `json:"users"`
	Posts    int `json:"posts"`
	Requests int `json:"requests"`
}
