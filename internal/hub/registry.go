package hub

import (
	"fmt"
	"sync"
)

// In-process fallback for the redis pub/sub registry, used when running
// self contained. Maps a topic to the connection IDs subscribed to it.
var localPubSubMutex sync.RWMutex
var localPubSub = make(map[string][]int64)

func topicOf(channelID int64) string {
	return fmt.Sprintf("channel:%d", channelID)
}

func subscribe(client *Client) error {
	topic := topicOf(client.ChannelID)

	if selfContained {
		localPubSubMutex.Lock()
		defer localPubSubMutex.Unlock()

		localPubSub[topic] = append(localPubSub[topic], client.ConnID)
		sugar.Debugf("Connection ID [%d] subscribed to local topic [%s]", client.ConnID, topic)
		return nil
	}

	err := client.PubSub.Subscribe(client.Ctx, topic)
	if err != nil {
		return err
	}

	sugar.Debugf("Connection ID [%d] subscribed to redis topic [%s]", client.ConnID, topic)
	return nil
}

func unsubscribe(client *Client) {
	topic := topicOf(client.ChannelID)

	if selfContained {
		localPubSubMutex.Lock()
		defer localPubSubMutex.Unlock()

		unsubscribeLocal(topic, client.ConnID)
		return
	}

	err := client.PubSub.Unsubscribe(client.Ctx, topic)
	if err != nil {
		sugar.Error(err)
	}
}

// callers hold localPubSubMutex
func unsubscribeLocal(topic string, connID int64) {
	connIDs := localPubSub[topic]

	// this won't run in case the topic doesn't exist since length will be 0
	for i := range connIDs {
		if connIDs[i] == connID {
			connIDs[i] = connIDs[len(connIDs)-1]
			localPubSub[topic] = connIDs[:len(connIDs)-1]
			break
		}
	}

	// delete topic from map once nobody is subscribed to it
	if len(localPubSub[topic]) == 0 {
		delete(localPubSub, topic)
	}
}

// Emit publishes an event to every current subscriber of the channel's
// topic. Delivery is attempted at most once per subscriber; a subscriber
// that can't keep up just misses the event.
func Emit(eventType string, channelID int64, payload any) error {
	frame, err := encodeFrame(eventType, payload)
	if err != nil {
		return err
	}

	topic := topicOf(channelID)
	sugar.Debugf("Sending %s to those on topic [%s]", eventType, topic)

	if !selfContained {
		return redisClient.Publish(redisCtx, topic, frame).Err()
	}

	localPubSubMutex.RLock()
	snapshot := append([]int64(nil), localPubSub[topic]...)
	localPubSubMutex.RUnlock()

	for _, connID := range snapshot {
		client, exists := GetClient(connID)
		if !exists {
			sugar.Warnf("Connection ID [%d] is supposed to be available", connID)
			continue
		}

		select {
		case client.LocalCh <- frame:
		default:
			sugar.Warnf("Connection ID [%d] is too slow, dropping %s event", connID, eventType)
		}
	}

	return nil
}
