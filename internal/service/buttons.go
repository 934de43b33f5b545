package service

// Reply-keyboard button texts. The chat transport renders these verbatim
// and sends them back as plain message text, so routing matches on them.
const (
	BtnCancel   = "✖️ Отмена"
	BtnBack     = "⬅️ Назад"
	BtnMainMenu = "🏠 В главное меню"

	// main menu
	BtnNew         = "▶️ Новый опрос (квартира)"
	BtnHelp        = "ℹ️ Помощь"
	BtnMyStats     = "📊 Сводка за смену"
	BtnAgentExport = "📥 Моя выгрузка (XLSX)"
	BtnAccess      = "🔑 Доступ"

	// access / logins
	BtnAdminMenu   = "🛠 Админ-меню"
	BtnAdminLogin  = "🔐 Админ-вход"
	BtnAdminLogout = "🚪 Выйти из админа"
	BtnBrigMenu    = "🪖 Бригадир-меню"
	BtnBrigLogin   = "🧑‍✈️ Вход бригадира"
	BtnBrigLogout  = "🚪 Выйти из бригадира"

	// repeat touch
	BtnPrimary   = "🔁 Первичное касание"
	BtnSecondary = "🔁 Повторное касание"

	// talk status
	BtnNoOne   = "🚪 Никого нет"
	BtnRefusal = "🙅 Отказ от общения"
	BtnConsent = "✅ Получено согласие"

	// flyer method
	BtnHand    = "🖐️ Флаер — на руки"
	BtnMailbox = "📮 Флаер — в почтовый ящик"
	BtnNo      = "🚫 Нет"

	// home voting
	BtnYes = "🏠 Голосование на дому — Да"
	BtnNot = "🏠 Голосование на дому — Нет"

	// finish choice
	BtnFinish  = "✅ Завершить опрос"
	BtnAddMore = "➕ Добавить ещё избирателя в этой квартире"

	// admin menu
	BtnAdminAccess     = "🔑 Доступы (бригадиры)"
	BtnAdminStatsAll   = "📈 Сводка по всем"
	BtnAdminExportXLSX = "📤 Экспорт XLSX"
	BtnAdminExportCSV  = "📩 Экспорт CSV"
	BtnXLSXAll         = "XLSX — всё"
	BtnCSVAll          = "CSV — всё"

	// admin access submenu
	BtnAccessAddBrig      = "➕ Назначить бригадира"
	BtnAccessAttachMember = "👥 Привязать участника к бригадиру"
	BtnAccessList         = "📋 Список бригадиров"
	BtnAccessDemote       = "⛔️ Разжаловать бригадира"

	// export ranges
	BtnExpToday = "📅 Сегодня"
	BtnExp7     = "🗓 Последние 7 дней"
	BtnExp30    = "🗓 Последние 30 дней"
	BtnExpAll   = "🗃 Весь период"

	// brigadier menu
	BtnBrigMembers    = "👥 Участники"
	BtnBrigAttach     = "🔗 Привязать участника"
	BtnBrigDetach     = "🧹 Отвязать участника"
	BtnBrigBlacklist  = "🧱 Чёрный список"
	BtnBrigBlock      = "🚫 Заблокировать участника"
	BtnBrigUnblock    = "♻️ Разблокировать участника"
	BtnBrigStats      = "📈 Сводка по участникам"
	BtnBrigExportXLSX = "📦 Экспорт XLSX (бригада)"
	BtnBrigHelp       = "ℹ️ Помощь (бригадир)"
)

func kbMain(isAdmin, isBrig bool) [][]string {
	rows := [][]string{
		{BtnNew},
		{BtnMyStats, BtnHelp},
		{BtnAgentExport},
		{BtnAccess},
	}
	if isAdmin {
		rows = append(rows, []string{BtnAdminMenu})
	}
	if isBrig {
		rows = append(rows, []string{BtnBrigMenu})
	}
	return rows
}

func kbAccessMenu(brigLogged, adminLogged bool) [][]string {
	var rows [][]string
	if adminLogged {
		rows = append(rows, []string{BtnAdminMenu})
	} else {
		rows = append(rows, []string{BtnAdminLogin})
	}
	if brigLogged {
		rows = append(rows, []string{BtnBrigMenu, BtnBrigLogout})
	} else {
		rows = append(rows, []string{BtnBrigLogin})
	}
	return append(rows, []string{BtnBack})
}

func kbCancel() [][]string {
	return [][]string{{BtnCancel}}
}

func kbRepeatTouch() [][]string {
	return [][]string{{BtnPrimary}, {BtnSecondary}, {BtnCancel}}
}

func kbStatus() [][]string {
	return [][]string{{BtnConsent}, {BtnRefusal}, {BtnNoOne}, {BtnCancel}}
}

func kbFlyerMethod() [][]string {
	return [][]string{{BtnHand}, {BtnMailbox}, {BtnNo}, {BtnCancel}}
}

func kbYesNo() [][]string {
	return [][]string{{BtnYes}, {BtnNot}, {BtnCancel}}
}

func kbFinishOrAdd() [][]string {
	return [][]string{{BtnFinish}, {BtnAddMore}, {BtnMainMenu}}
}

func kbAdminMenu() [][]string {
	return [][]string{
		{BtnAdminAccess},
		{BtnAdminStatsAll},
		{BtnAdminExportXLSX},
		{BtnAdminExportCSV},
		{BtnAdminLogout},
		{BtnBack},
	}
}

func kbAdminAccessMenu() [][]string {
	return [][]string{
		{BtnAccessAddBrig},
		{BtnAccessAttachMember},
		{BtnAccessList},
		{BtnAccessDemote},
		{BtnBack},
	}
}

func kbExportRanges() [][]string {
	return [][]string{
		{BtnExpToday, BtnExp7},
		{BtnExp30, BtnExpAll},
		{BtnBack},
	}
}

func kbBrigMenu() [][]string {
	return [][]string{
		{BtnBrigMembers},
		{BtnBrigAttach, BtnBrigDetach},
		{BtnBrigBlacklist},
		{BtnBrigStats},
		{BtnBrigExportXLSX},
		{BtnBrigLogout},
		{BtnBack},
		{BtnBrigHelp},
	}
}

func kbBrigBlacklist() [][]string {
	return [][]string{{BtnBrigBlock}, {BtnBrigUnblock}, {BtnBrigMenu}}
}
