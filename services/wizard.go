package services

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/annberg/school-pulse-backend/models"
)

const (
	WizardMinStep = 1
	WizardMaxStep = 4

	DefaultMood   = 3
	DefaultSleep  = 7.0
	DefaultEnergy = 5
)

var (
	ErrNoClass         = errors.New("чек-ин без класса невозможен")
	ErrBadMood         = errors.New("настроение должно быть от 1 до 5")
	ErrBadSleep        = errors.New("сон: от 0 до 12 часов с шагом 0.5")
	ErrBadEnergy       = errors.New("энергия должна быть от 1 до 10")
	ErrUnknownLabel    = errors.New("метка отсутствует в словаре")
	ErrUnknownCategory = errors.New("неизвестная категория факторов")
)

// WizardDraft — черновик мастера чек-ина. Живёт только в памяти:
// брошенный черновик никогда не попадает в БД. Поля защищены мьютексом,
// наружу состояние выходит только через Snapshot.
type WizardDraft struct {
	mu sync.Mutex

	UserID  uuid.UUID
	ClassID uuid.UUID

	Step           int // всегда в [1,4]
	Mood           int
	Emotions       map[string]bool
	Factors        map[string]bool
	FactorCategory string
	Comment        string
	SleepHours     float64
	Energy         int

	StartedAt time.Time
}

// DraftView — снимок черновика для ответа API.
type DraftView struct {
	Step           int       `json:"step"`
	ClassID        uuid.UUID `json:"class_id"`
	Mood           int       `json:"mood"`
	Emotions       []string  `json:"emotions"`
	Factors        []string  `json:"factors"`
	FactorCategory string    `json:"factor_category"`
	Comment        string    `json:"comment"`
	SleepHours     float64   `json:"sleep_hours"`
	Energy         int       `json:"energy"`
}

func NewWizardDraft(userID, classID uuid.UUID) *WizardDraft {
	return &WizardDraft{
		UserID:         userID,
		ClassID:        classID,
		Step:           WizardMinStep,
		Mood:           DefaultMood,
		Emotions:       make(map[string]bool),
		Factors:        make(map[string]bool),
		FactorCategory: FactorCategoryOrder[0],
		SleepHours:     DefaultSleep,
		Energy:         DefaultEnergy,
		StartedAt:      time.Now(),
	}
}

// Snapshot возвращает согласованную копию состояния черновика.
func (d *WizardDraft) Snapshot() DraftView {
	d.mu.Lock()
	defer d.mu.Unlock()

	return DraftView{
		Step:           d.Step,
		ClassID:        d.ClassID,
		Mood:           d.Mood,
		Emotions:       sortedKeys(d.Emotions),
		Factors:        sortedKeys(d.Factors),
		FactorCategory: d.FactorCategory,
		Comment:        d.Comment,
		SleepHours:     d.SleepHours,
		Energy:         d.Energy,
	}
}

// Next продвигает мастер на шаг вперёд. На последнем шаге ничего не
// инкрементирует и возвращает true — сигнал отправки.
func (d *WizardDraft) Next() (submit bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Step >= WizardMaxStep {
		d.Step = WizardMaxStep
		return true
	}
	d.Step++
	return false
}

// Back — шаг назад, на первом шаге no-op.
func (d *WizardDraft) Back() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Step > WizardMinStep {
		d.Step--
	}
	if d.Step < WizardMinStep {
		d.Step = WizardMinStep
	}
}

func (d *WizardDraft) SetMood(v int) error {
	if v < 1 || v > 5 {
		return ErrBadMood
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Mood = v
	return nil
}

func (d *WizardDraft) SetSleep(v float64) error {
	if v < 0 || v > 12 || math.Mod(v*2, 1) != 0 {
		return ErrBadSleep
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.SleepHours = v
	return nil
}

func (d *WizardDraft) SetEnergy(v int) error {
	if v < 1 || v > 10 {
		return ErrBadEnergy
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Energy = v
	return nil
}

func (d *WizardDraft) SetComment(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Comment = text
}

// SetFactorCategory меняет видимую категорию. Выбор из других категорий
// при этом сохраняется.
func (d *WizardDraft) SetFactorCategory(name string) error {
	if !IsFactorCategory(name) {
		return ErrUnknownCategory
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.FactorCategory = name
	return nil
}

// ToggleEmotion: повторный выбор снимает метку, новый — добавляет.
func (d *WizardDraft) ToggleEmotion(label string) error {
	if !IsEmotionLabel(label) {
		return ErrUnknownLabel
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Emotions[label] {
		delete(d.Emotions, label)
	} else {
		d.Emotions[label] = true
	}
	return nil
}

func (d *WizardDraft) ToggleFactor(label string) error {
	if !IsFactorLabel(label) {
		return ErrUnknownLabel
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Factors[label] {
		delete(d.Factors, label)
	} else {
		d.Factors[label] = true
	}
	return nil
}

// EmotionList возвращает выбранные эмоции как отсортированный срез —
// порядок выбора в записи не сохраняется.
func (d *WizardDraft) EmotionList() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedKeys(d.Emotions)
}

func (d *WizardDraft) FactorList() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedKeys(d.Factors)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ToCheckIn собирает итоговую запись. Черновик без класса не может быть
// отправлен ни при каких условиях.
func (d *WizardDraft) ToCheckIn() (*models.CheckIn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ClassID == uuid.Nil {
		return nil, ErrNoClass
	}

	emotions, err := json.Marshal(sortedKeys(d.Emotions))
	if err != nil {
		return nil, err
	}
	factors, err := json.Marshal(sortedKeys(d.Factors))
	if err != nil {
		return nil, err
	}

	return &models.CheckIn{
		ID:         uuid.New(),
		UserID:     d.UserID,
		ClassID:    d.ClassID,
		Mood:       d.Mood,
		Emotions:   datatypes.JSON(emotions),
		Factors:    datatypes.JSON(factors),
		Comment:    d.Comment,
		SleepHours: d.SleepHours,
		Energy:     d.Energy,
	}, nil
}

// DraftStore хранит черновики по пользователю. Один пользователь —
// один активный черновик.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]*WizardDraft
}

var Drafts = NewDraftStore()

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[uuid.UUID]*WizardDraft)}
}

func (s *DraftStore) Get(userID uuid.UUID) (*WizardDraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[userID]
	return d, ok
}

func (s *DraftStore) Put(d *WizardDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.UserID] = d
}

// Take атомарно изымает черновик из хранилища. Из нескольких
// параллельных вызовов черновик достаётся ровно одному.
func (s *DraftStore) Take(userID uuid.UUID) (*WizardDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[userID]
	if ok {
		delete(s.drafts, userID)
	}
	return d, ok
}

func (s *DraftStore) Delete(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}
