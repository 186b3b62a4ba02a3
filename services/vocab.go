package services

// Словари мастера чек-ина. Метки фиксированы и должны совпадать
// со значениями на клиенте один в один.

var EmotionVocabulary = []string{
	"😊 Радость",
	"😌 Спокойствие",
	"🤩 Восторг",
	"🙏 Благодарность",
	"💪 Уверенность",
	"🤗 Воодушевление",
	"😐 Безразличие",
	"🥱 Скука",
	"😕 Растерянность",
	"😟 Тревога",
	"😬 Стресс",
	"😢 Грусть",
	"😔 Одиночество",
	"😤 Раздражение",
	"😡 Злость",
	"😴 Усталость",
}

// Категории факторов. Переключение категории на клиенте не сбрасывает
// выбор в остальных категориях.
var FactorCategoryOrder = []string{"Учёба", "Отношения", "Здоровье", "Личное"}

var FactorCategories = map[string][]string{
	"Учёба":     {"Экзамены", "Домашние задания", "Оценки", "Расписание", "Нагрузка"},
	"Отношения": {"Друзья", "Семья", "Учителя", "Одноклассники", "Конфликты"},
	"Здоровье":  {"Сон", "Питание", "Спорт", "Самочувствие", "Болезнь"},
	"Личное":    {"Хобби", "Планы на будущее", "Самооценка", "Свободное время", "Погода"},
}

var emotionSet = func() map[string]bool {
	m := make(map[string]bool, len(EmotionVocabulary))
	for _, e := range EmotionVocabulary {
		m[e] = true
	}
	return m
}()

var factorSet = func() map[string]bool {
	m := make(map[string]bool)
	for _, items := range FactorCategories {
		for _, f := range items {
			m[f] = true
		}
	}
	return m
}()

func IsEmotionLabel(label string) bool { return emotionSet[label] }

func IsFactorLabel(label string) bool { return factorSet[label] }

func IsFactorCategory(name string) bool {
	_, ok := FactorCategories[name]
	return ok
}
