// Package demo drives a scripted live-shopping room so the server can be
// exercised end to end without a real host at the controls.
package demo

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/EvanTenenbaum/terp-live/internal/cart"
	"github.com/EvanTenenbaum/terp-live/internal/hub"
	"github.com/EvanTenenbaum/terp-live/internal/room"
)

// RoomCode is the room the demo generator hosts.
const RoomCode = "DEMO"

type product struct {
	batchID   int64
	batchCode string
	name      string
	unitPrice string
}

var catalog = []product{
	{101, "BD-0424", "Blue Dream 3.5g", "28.00"},
	{102, "GL-0515", "Gelato 3.5g", "32.00"},
	{103, "SH-0601", "Sour Haze 7g", "49.50"},
	{104, "WC-0318", "Wedding Cake 3.5g", "35.00"},
	{105, "PR-0222", "Purple Runtz 1g Pre-Roll", "9.00"},
	{106, "MK-0710", "MAC Kush 14g", "89.00"},
}

type Generator struct {
	store *room.Store
	hub   *hub.Hub

	items []cart.Item
}

func NewGenerator(store *room.Store, h *hub.Hub) *Generator {
	return &Generator{
		store: store,
		hub:   h,
	}
}

// Start creates the demo room and begins the scripted session. The room
// runs until ctx is canceled, ending and restarting itself in a loop.
func (g *Generator) Start(ctx context.Context) error {
	if _, err := g.store.Create(RoomCode, "Friday Drop", "Demo Host"); err != nil {
		return fmt.Errorf("create demo room: %w", err)
	}
	log.Printf("demo: hosting room %s", RoomCode)
	go g.run(ctx)
	return nil
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick++
			g.step(tick)
		}
	}
}

// step advances the script one beat. The cycle adds items, rotates the
// highlight through them, takes a short break, then ends the session and
// starts over with an empty cart.
func (g *Generator) step(tick int) {
	const cyclePeriod = 30
	phase := tick % cyclePeriod

	switch {
	case phase == 0:
		g.endAndReset()
	case phase < 8:
		g.addItem(phase)
	case phase < 20:
		g.rotateHighlight(phase)
	case phase == 20:
		g.setStatus(room.StatusPaused)
	case phase == 24:
		g.setStatus(room.StatusActive)
	case phase == 27:
		g.bumpQuantity()
	}
}

func (g *Generator) addItem(phase int) {
	p := catalog[rand.Intn(len(catalog))]
	qty := 1 + rand.Intn(3)
	g.items = append(g.items, cart.Item{
		ID:          int64(phase),
		BatchID:     p.batchID,
		BatchCode:   p.batchCode,
		ProductName: p.name,
		Quantity:    strconv.Itoa(qty),
		UnitPrice:   p.unitPrice,
	})
	g.pushCart()
}

func (g *Generator) rotateHighlight(phase int) {
	if len(g.items) == 0 {
		return
	}
	batchID := g.items[phase%len(g.items)].BatchID
	if err := g.store.SetHighlight(RoomCode, batchID); err != nil {
		log.Printf("demo: highlight: %v", err)
		return
	}
	g.hub.BroadcastHighlight(RoomCode, batchID)
}

func (g *Generator) bumpQuantity() {
	if len(g.items) == 0 {
		return
	}
	i := rand.Intn(len(g.items))
	qty, _ := strconv.Atoi(g.items[i].Quantity)
	g.items[i].Quantity = strconv.Itoa(qty + 1)
	g.pushCart()
}

func (g *Generator) setStatus(status string) {
	if err := g.store.SetStatus(RoomCode, status); err != nil {
		log.Printf("demo: status: %v", err)
		return
	}
	g.hub.BroadcastStatus(RoomCode, status)
}

func (g *Generator) endAndReset() {
	g.setStatus(room.StatusEnded)
	g.items = nil
	if err := g.store.SetCart(RoomCode, cart.FromItems(nil)); err != nil {
		log.Printf("demo: reset cart: %v", err)
	}
	g.setStatus(room.StatusActive)
	g.hub.BroadcastSync(RoomCode)
}

func (g *Generator) pushCart() {
	if err := g.store.SetCart(RoomCode, cart.FromItems(g.items)); err != nil {
		log.Printf("demo: cart: %v", err)
		return
	}
	sess, ok := g.store.Get(RoomCode)
	if !ok {
		return
	}
	g.hub.BroadcastCart(RoomCode, sess.Cart)
}
