package gateway

import (
	"encoding/json"
	"fmt"
)

type apsAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type apsBody struct {
	Alert apsAlert `json:"alert"`
	Sound string   `json:"sound,omitempty"`
	Badge *int     `json:"badge,omitempty"`
}

type apnsPayload struct {
	APS  apsBody `json:"aps"`
	Link string  `json:"link,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

type fcmPayload struct {
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data"`
}

// buildEnvelope renders the MessageStructure "json" payload SNS expects:
// a default string plus per-platform JSON documents, each serialized as a
// string field of the outer document.
func buildEnvelope(msg Message) (string, error) {
	apns := apnsPayload{
		APS: apsBody{
			Alert: apsAlert{Title: msg.Title, Body: msg.Body},
			Sound: msg.Sound,
			Badge: msg.Badge,
		},
		Link: msg.Link,
	}
	apnsJSON, err := json.Marshal(apns)
	if err != nil {
		return "", fmt.Errorf("marshal apns payload: %w", err)
	}

	data := map[string]string{}
	if msg.Link != "" {
		data["link"] = msg.Link
	}
	fcm := fcmPayload{
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body, Sound: msg.Sound},
		Data:         data,
	}
	fcmJSON, err := json.Marshal(fcm)
	if err != nil {
		return "", fmt.Errorf("marshal fcm payload: %w", err)
	}

	fallback := msg.Body
	if fallback == "" {
		fallback = msg.Title
	}
	if fallback == "" {
		fallback = "Notification"
	}

	envelope := map[string]string{
		"default":      fallback,
		"APNS":         string(apnsJSON),
		"APNS_SANDBOX": string(apnsJSON),
		"GCM":          string(fcmJSON),
	}
	out, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(out), nil
}
