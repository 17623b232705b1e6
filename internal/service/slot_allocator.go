package service

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/andes-edu/colegio-admin-api/internal/models"
)

// autoGeneratedNote marks blocks produced by the allocator rather than by hand.
const autoGeneratedNote = "Generado automáticamente"

var slotDays = []int{1, 2, 3, 4, 5}

var slotStarts = []string{
	"07:30",
	"08:30",
	"09:30",
	"10:30",
	"11:30",
	"12:30",
	"13:30",
	"14:30",
	"15:30",
}

// buildSlotOptions enumerates the fixed weekly slot catalog: weekdays Monday
// through Friday crossed with nine hourly start times, 45 options in total.
// Times are normalised to HH:MM:SS and every slot lasts exactly one hour.
func buildSlotOptions() []models.SlotOption {
	options := make([]models.SlotOption, 0, len(slotDays)*len(slotStarts))
	for _, dia := range slotDays {
		for _, inicio := range slotStarts {
			options = append(options, models.SlotOption{
				DiaSemana:  dia,
				HoraInicio: withSeconds(inicio),
				HoraFin:    withSeconds(addMinutes(inicio, 60)),
			})
		}
	}
	return options
}

func addMinutes(value string, minutes int) string {
	parts := strings.SplitN(value, ":", 2)
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	total := hour*60 + minute + minutes
	total %= 24 * 60
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func withSeconds(value string) string {
	if strings.Count(value, ":") == 2 {
		return value
	}
	return value + ":00"
}

// slotAllocator assigns pairings to (slot, room) combinations while avoiding
// professor and room double-booking. Claim sets live for one allocation run.
type slotAllocator struct {
	options  []models.SlotOption
	rooms    []models.Room
	rng      *rand.Rand
	usedProf map[string]struct{}
	usedRoom map[string]struct{}
	degraded int
}

func newSlotAllocator(rooms []models.Room, rng *rand.Rand) *slotAllocator {
	return &slotAllocator{
		options:  buildSlotOptions(),
		rooms:    rooms,
		rng:      rng,
		usedProf: make(map[string]struct{}),
		usedRoom: make(map[string]struct{}),
	}
}

// buildBlocks allocates one block per pairing, in the order received.
func (a *slotAllocator) buildBlocks(pairings []models.CourseSubjectPairing) []models.ProposalBlock {
	blocks := make([]models.ProposalBlock, 0, len(pairings))
	for _, pairing := range pairings {
		option, salaID := a.pick(pairing.ProfesorVinculoID)
		note := autoGeneratedNote
		blocks = append(blocks, models.ProposalBlock{
			ProfesorVinculoID: pairing.ProfesorVinculoID,
			CursoMateriaID:    pairing.CursoMateriaID,
			SalaID:            salaID,
			DiaSemana:         option.DiaSemana,
			HoraInicio:        option.HoraInicio,
			HoraFin:           option.HoraFin,
			Observaciones:     &note,
		})
	}
	return blocks
}

// pick walks a shuffled slot permutation, and per slot a shuffled room
// permutation, claiming the first combination free for both the professor and
// the room. When the search is exhausted it falls back to the first slot and
// room, accepting a double-booking so generation always completes.
func (a *slotAllocator) pick(profesorID string) (models.SlotOption, string) {
	for _, option := range a.shuffledOptions() {
		for _, room := range a.shuffledRooms() {
			profKey := claimKey(profesorID, option)
			roomKey := claimKey(room.ID, option)
			if _, taken := a.usedProf[profKey]; taken {
				continue
			}
			if _, taken := a.usedRoom[roomKey]; taken {
				continue
			}
			a.usedProf[profKey] = struct{}{}
			a.usedRoom[roomKey] = struct{}{}
			return option, room.ID
		}
	}

	fallback := a.options[0]
	room := a.rooms[0]
	a.usedProf[claimKey(profesorID, fallback)] = struct{}{}
	a.usedRoom[claimKey(room.ID, fallback)] = struct{}{}
	a.degraded++
	return fallback, room.ID
}

func (a *slotAllocator) shuffledOptions() []models.SlotOption {
	out := make([]models.SlotOption, len(a.options))
	copy(out, a.options)
	a.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (a *slotAllocator) shuffledRooms() []models.Room {
	out := make([]models.Room, len(a.rooms))
	copy(out, a.rooms)
	a.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func claimKey(id string, option models.SlotOption) string {
	return fmt.Sprintf("%s-%d-%s", id, option.DiaSemana, option.HoraInicio)
}
