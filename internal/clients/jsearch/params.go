package jsearch

import (
	"fmt"
	"net/url"
	"strconv"
)

type SearchParameters struct {
	Query      string
	Location   string
	RemoteOnly bool
	PageToken  string
	PerPage    int
}

func (s SearchParameters) Validate() error {

	if s.Query == "" {
		return fmt.Errorf("query must not be empty")
	}

	if s.PerPage < 0 || s.PerPage > 100 {
		return fmt.Errorf("per page must be between 0 and 100")
	}

	return nil
}

func (s SearchParameters) ToUrlParams() url.Values {

	params := url.Values{}
	params.Add("query", s.Query)

	if s.Location != "" {
		params.Add("location", s.Location)
	}

	if s.RemoteOnly {
		params.Add("remote_jobs_only", "true")
	}

	if s.PageToken != "" {
		params.Add("page_token", s.PageToken)
	}

	if s.PerPage != 0 {
		params.Add("num_results", strconv.Itoa(s.PerPage))
	}

	return params
}
