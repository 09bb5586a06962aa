package domain

import "testing"

func TestTopicRoundTrip(t *testing.T) {
	topic := DomainTopic("storeManagement", "storeAssignment", VerbUpdated)
	if topic != "storeManagement.storeAssignment.updated" {
		t.Fatalf("unexpected topic: %s", topic)
	}
	entity, verb, err := ParseTopic(topic)
	if err != nil || entity != "storeAssignment" || verb != VerbUpdated {
		t.Fatalf("parse: %s %s %v", entity, verb, err)
	}
}

func TestIndexTopicRoundTrip(t *testing.T) {
	topic := IndexTopic("salesai1", "inventoryItem", VerbCreated)
	if topic != "salesai1-elastic-index-inventoryItem-created" {
		t.Fatalf("unexpected topic: %s", topic)
	}
	entity, verb, err := ParseTopic(topic)
	if err != nil || entity != "inventoryItem" || verb != VerbCreated {
		t.Fatalf("parse: %s %s %v", entity, verb, err)
	}
}

func TestParseTopicMalformed(t *testing.T) {
	for _, topic := range []string{"", "noDots", "a.b", "a.b.c.d", "ns-elastic-index-", "ns-elastic-index-entity"} {
		if _, _, err := ParseTopic(topic); err == nil {
			t.Fatalf("expected error for %q", topic)
		}
	}
}
