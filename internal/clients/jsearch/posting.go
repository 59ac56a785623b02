package jsearch

import (
	"encoding/json"
	"fmt"
	"time"
)

type Posting struct {
	ID          string     `json:"job_id"`
	Title       string     `json:"job_title"`
	Company     string     `json:"employer_name"`
	Location    string     `json:"job_location"`
	Description string     `json:"job_description"`
	ApplyLink   string     `json:"job_apply_link"`
	Remote      bool       `json:"job_is_remote"`
	PostedAt    CustomTime `json:"job_posted_at"`
}

type CustomTime struct {
	time.Time
}

func (dt *CustomTime) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}

	if str == "" {
		dt.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return fmt.Errorf("parsing time %s: %v", str, err)
	}
	dt.Time = t
	return nil
}
