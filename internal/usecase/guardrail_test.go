package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyTopic(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		farming bool
		topics  []string
	}{
		{name: "produce question", text: "Do you have organic tomatoes?", farming: true},
		{name: "order question", text: "Where is my order?", farming: true},
		{name: "weather question", text: "What's the weather today?", farming: false, topics: []string{"weather"}},
		{name: "movie question", text: "Any good movies this week?", farming: false, topics: []string{"entertainment"}},
		{name: "politics question", text: "Who won the election?", farming: false, topics: []string{"politics"}},
		{name: "greeting passes through", text: "Hello there!", farming: true},
		{name: "farming beats off-topic", text: "Does the weather affect my tomato crop?", farming: true, topics: []string{"weather"}},
		{name: "multiple topics detected", text: "cricket scores and bitcoin news please", farming: false, topics: []string{"sports", "finance"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyTopic(tc.text)
			require.Equal(t, tc.farming, got.FarmingRelated)
			require.Equal(t, tc.topics, got.DetectedTopics)
		})
	}
}

func TestRejectionMessage(t *testing.T) {
	msg := rejectionMessage([]string{"weather"})
	require.Contains(t, msg, "weather")
	require.Contains(t, msg, "seasonal")
	require.Contains(t, msg, "wishlist")

	generic := rejectionMessage(nil)
	require.Contains(t, generic, "that topic")
}
