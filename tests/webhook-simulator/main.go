package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

// Отправляет подписанные события шлюза в локальный вебхук, включая
// повторные доставки и события по несуществующим транзакциям.

var (
	url    = flag.String("url", "http://localhost:9000/api/v1/payments/webhook", "webhook endpoint")
	secret = flag.String("secret", "whsec_test", "webhook signing secret")
	txID   = flag.String("tx", "", "known transaction id to reconcile (random ids are mixed in)")
)

type eventObject struct {
	ID string `json:"id"`
}

type eventData struct {
	Object eventObject `json:"object"`
}

type event struct {
	Type string    `json:"type"`
	Data eventData `json:"data"`
}

func randomID(length int) string {
	chars := []rune("abcdefghijklmnopqrstuvwxyz0123456789")
	id := make([]rune, length)
	for i := range id {
		id[i] = chars[rand.Intn(len(chars))]
	}
	return string(id)
}

func sign(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func randomEvent() event {
	kinds := []string{"payment_intent.succeeded", "payment_intent.payment_failed", "charge.refunded"}
	id := "pi_" + randomID(12)
	if *txID != "" && rand.Intn(3) == 0 {
		id = *txID
	}
	return event{Type: kinds[rand.Intn(len(kinds))], Data: eventData{Object: eventObject{ID: id}}}
}

func deliver(ev event) {
	payload, _ := json.Marshal(ev)

	req, _ := http.NewRequest(http.MethodPost, *url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", sign(*secret, time.Now().Unix(), payload))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Println("delivery failed:", err)
		return
	}
	resp.Body.Close()
	log.Println(ev.Type, ev.Data.Object.ID, "->", resp.Status)
}

func main() {
	flag.Parse()

	ticker := time.NewTicker(2 * time.Second)
	for range ticker.C {
		ev := randomEvent()
		deliver(ev)

		// Иногда дублируем доставку: сверка должна сходиться.
		if rand.Intn(4) == 0 {
			deliver(ev)
		}
	}
}
