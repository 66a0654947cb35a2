package usecase

import (
	"fmt"
	"strings"

	"greenspace-agent/internal/domain"
)

// farmingVocabulary is matched case-insensitively against the last user
// message. Any hit makes the message farming-related regardless of what
// else it mentions.
var farmingVocabulary = []string{
	"farm", "farming", "crop", "crops", "seed", "seeds", "plant", "planting",
	"sapling", "tree", "soil", "compost", "fertilizer", "fertiliser",
	"harvest", "grow", "growing", "season", "seasonal",
	"vegetable", "vegetables", "fruit", "fruits", "organic", "natural",
	"tomato", "tomatoes", "onion", "potato", "spinach", "mango", "rice", "wheat",
	"seller", "sellers", "market", "marketplace", "buy", "purchase", "price",
	"order", "orders", "wishlist", "delivery", "payment", "pay", "upi", "kg",
}

// offTopicCategories names the topics the rejection message can reference.
// Slice order fixes the detection order so classifications are
// deterministic.
var offTopicCategories = []struct {
	topic    string
	keywords []string
}{
	{"weather", []string{"weather", "temperature", "forecast", "rainfall", "humidity"}},
	{"entertainment", []string{"movie", "movies", "film", "music", "song", "netflix", "celebrity"}},
	{"politics", []string{"politics", "political", "election", "government", "minister"}},
	{"sports", []string{"cricket", "football", "sports", "ipl", "tournament"}},
	{"technology", []string{"programming", "software", "computer", "laptop", "smartphone"}},
	{"finance", []string{"stock", "stocks", "trading", "crypto", "bitcoin", "mutual fund"}},
}

// classifyTopic decides whether a user message belongs to the farming
// marketplace domain. Neutral text with no off-topic hit passes through so
// greetings still reach the model; only a recognized off-topic subject with
// no farming signal is rejected.
func classifyTopic(text string) domain.TopicClassification {
	lowered := strings.ToLower(text)

	var topics []string
	for _, cat := range offTopicCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lowered, kw) {
				topics = append(topics, cat.topic)
				break
			}
		}
	}

	farming := false
	for _, kw := range farmingVocabulary {
		if strings.Contains(lowered, kw) {
			farming = true
			break
		}
	}

	return domain.TopicClassification{
		FarmingRelated: farming || len(topics) == 0,
		DetectedTopics: topics,
	}
}

// rejectionMessage is the canned reply for an out-of-domain turn. It names
// the detected topics and redirects to what the assistant can do.
func rejectionMessage(topics []string) string {
	subject := "that topic"
	if len(topics) > 0 {
		subject = strings.Join(topics, ", ")
	}
	return fmt.Sprintf(
		"I'm the Greenspace farming assistant, so I can't help with %s. "+
			"I can search fresh produce, find natural-farming sellers near you, share seasonal growing advice, "+
			"manage your wishlist, track your orders, place instant orders, and explain how payment works. "+
			"What would you like to do?",
		subject,
	)
}
