package handlers

import (
	"net/http"

	"github.com/voisoc/backend/internal/models"
)

func (suite *HandlersTestSuite) sendMessage(token, recipientID, text string) {
	w := suite.do(http.MethodPost, "/api/v1/messages", map[string]interface{}{
		"recipient_id": recipientID,
		"text":         text,
	}, token)
	suite.Require().Equal(http.StatusCreated, w.Code)
}

func (suite *HandlersTestSuite) TestSendMessageRest() {
	suite.sendMessage(suite.aliceToken, suite.bob.ID, "hi over rest")

	var stored models.Message
	suite.Require().NoError(suite.db.First(&stored, "sender_id = ?", suite.alice.ID).Error)
	suite.Equal(suite.bob.ID, stored.RecipientID)
	suite.Equal("hi over rest", stored.Text)
	suite.Equal(models.MessageStatusSent, stored.Status)
}

func (suite *HandlersTestSuite) TestSendMessageUnknownRecipient() {
	w := suite.do(http.MethodPost, "/api/v1/messages", map[string]interface{}{
		"recipient_id": "no-such-user",
		"text":         "hello?",
	}, suite.aliceToken)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestGetConversation() {
	suite.sendMessage(suite.aliceToken, suite.bob.ID, "first")
	suite.sendMessage(suite.bobToken, suite.alice.ID, "second")
	suite.sendMessage(suite.aliceToken, suite.bob.ID, "third")

	// Both participants see the same conversation, oldest first
	for _, token := range []string{suite.aliceToken, suite.bobToken} {
		other := suite.bob.ID
		if token == suite.bobToken {
			other = suite.alice.ID
		}

		w := suite.do(http.MethodGet, "/api/v1/messages/"+other, nil, token)
		suite.Equal(http.StatusOK, w.Code)

		body := suite.decode(w)
		messages := body["messages"].([]interface{})
		suite.Require().Len(messages, 3)
		suite.Equal("first", messages[0].(map[string]interface{})["text"])
		suite.Equal("third", messages[2].(map[string]interface{})["text"])
	}
}

func (suite *HandlersTestSuite) TestGetConversationLimit() {
	suite.sendMessage(suite.aliceToken, suite.bob.ID, "one")
	suite.sendMessage(suite.aliceToken, suite.bob.ID, "two")
	suite.sendMessage(suite.aliceToken, suite.bob.ID, "three")

	w := suite.do(http.MethodGet, "/api/v1/messages/"+suite.bob.ID+"?limit=2", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	messages := body["messages"].([]interface{})
	suite.Require().Len(messages, 2)
	// Most recent messages win, order preserved
	suite.Equal("two", messages[0].(map[string]interface{})["text"])
	suite.Equal("three", messages[1].(map[string]interface{})["text"])
}

func (suite *HandlersTestSuite) TestGetConversationEmpty() {
	w := suite.do(http.MethodGet, "/api/v1/messages/"+suite.bob.ID, nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	suite.Empty(body["messages"])
	suite.Equal(float64(0), body["count"])
}

func (suite *HandlersTestSuite) TestGetConversationPartners() {
	carol, carolToken := suite.registerUser("carol@example.com", "carol")

	suite.sendMessage(suite.aliceToken, suite.bob.ID, "hi bob")
	suite.sendMessage(carolToken, suite.alice.ID, "hi alice")

	w := suite.do(http.MethodGet, "/api/v1/messages", nil, suite.aliceToken)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	conversations := body["conversations"].([]interface{})
	suite.Require().Len(conversations, 2)

	// Most recent conversation first
	first := conversations[0].(map[string]interface{})["user"].(map[string]interface{})
	suite.Equal(carol.Username, first["username"])
}
