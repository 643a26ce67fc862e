package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/relieflink/report-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://llm.test/v1beta"

func newTestClient() *Client {
	return NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     testBaseURL,
		Model:       "test-model",
		Temperature: 0.1,
	})
}

func modelResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestClassify_Disaster(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	out := `{"category":"disaster","confidence":0.92,"data":{
		"disaster_type":"flood","severity":"high","people_affected":"1-10",
		"casualties":null,"needs":{"rescue":true,"medical":false,"shelter":false,"food":false,"water":false,"evacuation":false},
		"location_address":"Galle","occurred_date":null,"area_size":null,
		"reporter_name":"SMS Reporter"}}`

	httpmock.RegisterResponder(http.MethodPost,
		testBaseURL+"/models/test-model:generateContent",
		httpmock.NewStringResponder(200, modelResponse(out)))

	c := newTestClient()
	report, err := c.Classify(context.Background(),
		"Flood near Galle, water rising fast, need rescue, 2 families trapped",
		"+94771234567", time.Now())
	require.NoError(t, err)

	assert.Equal(t, model.CategoryDisaster, report.Category)
	assert.InDelta(t, 0.92, report.Confidence, 0.001)
	require.NotNil(t, report.Disaster)
	assert.Equal(t, "flood", report.Disaster.DisasterType)
	assert.Equal(t, "high", report.Disaster.Severity)
	assert.Equal(t, "Galle", report.Disaster.LocationAddress)
	assert.True(t, report.Disaster.Needs.Rescue)
	assert.Contains(t, report.RawMessage, "Flood near Galle")
}

func TestClassify_StripsCodeFence(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	out := "```json\n{\"category\":\"animal_rescue\",\"confidence\":0.8,\"data\":{" +
		"\"animal_type\":\"dog\",\"breed\":null,\"condition\":\"trapped\"," +
		"\"is_dangerous\":false,\"location_address\":\"Kandy\",\"reporter_name\":\"SMS Reporter\"}}\n```"

	httpmock.RegisterResponder(http.MethodPost,
		testBaseURL+"/models/test-model:generateContent",
		httpmock.NewStringResponder(200, modelResponse(out)))

	c := newTestClient()
	report, err := c.Classify(context.Background(), "dog trapped in drain kandy", "+9477", time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.CategoryAnimalRescue, report.Category)
	require.NotNil(t, report.AnimalRescue)
	assert.Equal(t, "dog", report.AnimalRescue.AnimalType)
}

func TestClassify_ServerError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost,
		testBaseURL+"/models/test-model:generateContent",
		httpmock.NewStringResponder(500, "internal error"))

	c := newTestClient()
	_, err := c.Classify(context.Background(), "flood", "+9477", time.Now())
	assert.ErrorIs(t, err, ErrClassificationFailed)
}

func TestClassify_EmptyCandidates(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost,
		testBaseURL+"/models/test-model:generateContent",
		httpmock.NewStringResponder(200, `{"candidates":[]}`))

	c := newTestClient()
	_, err := c.Classify(context.Background(), "flood", "+9477", time.Now())
	assert.ErrorIs(t, err, ErrClassificationFailed)
}

func TestClassify_InvalidJSONOutput(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost,
		testBaseURL+"/models/test-model:generateContent",
		httpmock.NewStringResponder(200, modelResponse("sorry, I cannot classify this")))

	c := newTestClient()
	_, err := c.Classify(context.Background(), "flood", "+9477", time.Now())
	assert.ErrorIs(t, err, ErrClassificationFailed)
}

func TestClassify_RejectsUnknownFields(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	// a prompt-injected extra key must not survive the decode
	out := `{"category":"disaster","confidence":0.9,"data":{
		"disaster_type":"flood","severity":"high","people_affected":null,
		"casualties":null,"needs":null,"location_address":"Galle",
		"occurred_date":null,"area_size":null,"reporter_name":"x",
		"admin_override":true}}`

	httpmock.RegisterResponder(http.MethodPost,
		testBaseURL+"/models/test-model:generateContent",
		httpmock.NewStringResponder(200, modelResponse(out)))

	c := newTestClient()
	_, err := c.Classify(context.Background(), "flood galle", "+9477", time.Now())
	assert.ErrorIs(t, err, ErrClassificationFailed)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`{"a":1}`))
}
