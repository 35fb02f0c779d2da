package tasks

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const buttondownSubscribersURL = "https://api.buttondown.email/v1/subscribers"

var mailingListClient = &http.Client{Timeout: 10 * time.Second}

// AddEmailToMailingList subscribes an address to the buttondown newsletter.
// Called off-path only; a failure here never reaches a request.
func AddEmailToMailingList(apiKey, email, tag string) error {
	if apiKey == "" {
		return nil // mailing list sync disabled
	}

	payload, err := json.Marshal(map[string]any{
		"email_address": email,
		"metadata":      map[string]string{"source": tag},
		"tags":          []string{tag},
		"type":          "regular",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, buttondownSubscribersURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := mailingListClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("buttondown returned %d for %s", resp.StatusCode, email)
	}
	return nil
}
