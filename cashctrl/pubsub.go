package cashctrl

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/swisscityerp/erp_backend/config"
	"github.com/swisscityerp/erp_backend/utils"
)

func PublishSyncRun(ctx context.Context, runId uint, tenantId string, setupId uint) error {
	topicName := strings.TrimSpace(os.Getenv("CASHCTRL_SYNC_TOPIC"))
	if topicName == "" {
		topicName = "cashctrl-sync"
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topic := client.Topic(topicName)
	if utils.EnvBoolDefault(os.Getenv("CASHCTRL_SYNC_CREATE_TOPIC"), false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	payload := SyncPubSubPayload{
		RunId:    runId,
		TenantId: tenantId,
		SetupId:  setupId,
	}
	data, err := utils.MarshalToJSON(payload)
	if err != nil {
		return err
	}
	res := topic.Publish(ctx, &pubsub.Message{Data: []byte(data)})
	_, err = res.Get(ctx)
	return err
}

func PubSubPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.EnvBoolDefault(os.Getenv("ENABLE_CASHCTRL_PUBSUB_PUSH_ENDPOINT"), true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		payload, err := DecodeSyncPayload(envelope.Message.Data)
		if err != nil {
			c.Status(204)
			return
		}
		if payload.RunId == 0 || payload.TenantId == "" {
			c.Status(204)
			return
		}

		_ = ProcessSyncRun(c.Request.Context(), payload)
		c.Status(204)
	}
}
