package domain

import (
	"fmt"
	"strings"
)

const indexTopicMarker = "-elastic-index-"

// DomainTopic builds the raw domain event topic for an entity owned by a service.
func DomainTopic(service, entity, verb string) string {
	return service + "." + entity + "." + verb
}

// IndexTopic builds the "entity became queryable" topic emitted after an
// entity snapshot has been written to its search index.
func IndexTopic(namespace, entity, verb string) string {
	return namespace + indexTopicMarker + entity + "-" + verb
}

// ParseTopic extracts the entity name and verb from either topic form.
func ParseTopic(topic string) (entity, verb string, err error) {
	if i := strings.Index(topic, indexTopicMarker); i >= 0 {
		rest := topic[i+len(indexTopicMarker):]
		j := strings.LastIndex(rest, "-")
		if j <= 0 || j == len(rest)-1 {
			return "", "", fmt.Errorf("malformed index topic %q", topic)
		}
		return rest[:j], rest[j+1:], nil
	}
	parts := strings.Split(topic, ".")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed topic %q", topic)
	}
	return parts[1], parts[2], nil
}
