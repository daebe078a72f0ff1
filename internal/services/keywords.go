package services

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Topic generation: TF-IDF over the combined message text. With a
// single combined document this reduces to L2-normalized term
// frequency, which is exactly what we want for a short topic label.

const (
	topicMaxFeatures = 50
	topicKeywords    = 3
	topicScoreFloor  = 0.1
)

var nonWord = regexp.MustCompile(`[^\w\s]`)

var topicStopwords = buildStopwords()

func buildStopwords() map[string]struct{} {
	words := []string{
		// English stopwords.
		"a", "about", "above", "after", "again", "against", "all", "am",
		"an", "and", "any", "are", "aren", "as", "at", "be", "because",
		"been", "before", "being", "below", "between", "both", "but",
		"by", "can", "cannot", "could", "couldn", "did", "didn", "do",
		"does", "doesn", "doing", "don", "down", "during", "each",
		"few", "for", "from", "further", "had", "hadn", "has", "hasn",
		"have", "haven", "having", "he", "her", "here", "hers",
		"herself", "him", "himself", "his", "how", "i", "if", "in",
		"into", "is", "isn", "it", "its", "itself", "let", "me", "more",
		"most", "mustn", "my", "myself", "no", "nor", "not", "of",
		"off", "on", "once", "only", "or", "other", "ought", "our",
		"ours", "ourselves", "out", "over", "own", "same", "shan",
		"she", "should", "shouldn", "so", "some", "such", "than",
		"that", "the", "their", "theirs", "them", "themselves", "then",
		"there", "these", "they", "this", "those", "through", "to",
		"too", "under", "until", "up", "very", "was", "wasn", "we",
		"were", "weren", "what", "when", "where", "which", "while",
		"who", "whom", "why", "with", "won", "would", "wouldn", "you",
		"your", "yours", "yourself", "yourselves",
		// Chat filler that would otherwise dominate session topics.
		"user", "assistant", "sure", "yes", "okay", "thanks", "think",
		"like", "just", "im",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// GenerateTopicKeywords returns up to three comma-separated keywords
// for the given texts, or "" when there is not enough signal.
func GenerateTopicKeywords(texts []string) string {
	if len(texts) < 2 {
		return ""
	}

	freq := make(map[string]int)
	for _, text := range texts {
		cleaned := nonWord.ReplaceAllString(strings.ToLower(text), "")
		for _, token := range strings.Fields(cleaned) {
			if _, stop := topicStopwords[token]; stop {
				continue
			}
			if len(token) < 2 {
				continue
			}
			freq[token]++
		}
	}
	if len(freq) == 0 {
		return ""
	}

	type term struct {
		word  string
		count int
	}
	terms := make([]term, 0, len(freq))
	for w, n := range freq {
		terms = append(terms, term{word: w, count: n})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].count != terms[j].count {
			return terms[i].count > terms[j].count
		}
		return terms[i].word < terms[j].word
	})
	if len(terms) > topicMaxFeatures {
		terms = terms[:topicMaxFeatures]
	}

	var norm float64
	for _, t := range terms {
		norm += float64(t.count) * float64(t.count)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return ""
	}

	keywords := make([]string, 0, topicKeywords)
	for _, t := range terms {
		if len(keywords) == topicKeywords {
			break
		}
		if float64(t.count)/norm > topicScoreFloor {
			keywords = append(keywords, t.word)
		}
	}
	return strings.Join(keywords, ", ")
}
